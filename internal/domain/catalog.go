package domain

// State is an immutable snapshot of the catalog.
// Operations never modify the receiver; they return a new State.
type State struct {
	Products []Product
	Loaded   bool
}

// SetProducts replaces the whole sequence and marks the catalog as loaded
func (s State) SetProducts(products []Product) State {
	next := make([]Product, len(products))
	copy(next, products)
	return State{Products: next, Loaded: true}
}

// AddProduct appends product at the end of the sequence
func (s State) AddProduct(product Product) State {
	next := make([]Product, len(s.Products), len(s.Products)+1)
	copy(next, s.Products)
	return State{Products: append(next, product), Loaded: s.Loaded}
}

// EditProduct merges patch into the product with the given id.
// An unknown id returns the state unchanged.
func (s State) EditProduct(id int64, patch ProductPatch) State {
	return s.update(id, patch.Apply)
}

// ToggleLike inverts the liked flag of the product with the given id.
// An unknown id returns the state unchanged.
func (s State) ToggleLike(id int64) State {
	return s.update(id, func(p Product) Product {
		p.Liked = !p.Liked
		return p
	})
}

// DeleteProduct removes the product with the given id.
// An unknown id returns the state unchanged.
func (s State) DeleteProduct(id int64) State {
	i := s.indexOf(id)
	if i < 0 {
		return s
	}
	next := make([]Product, 0, len(s.Products)-1)
	next = append(next, s.Products[:i]...)
	next = append(next, s.Products[i+1:]...)
	return State{Products: next, Loaded: s.Loaded}
}

// Find returns the product with the given id
func (s State) Find(id int64) (Product, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Product{}, false
	}
	return s.Products[i], true
}

// Contains reports whether a product with the given id exists
func (s State) Contains(id int64) bool {
	return s.indexOf(id) >= 0
}

func (s State) update(id int64, fn func(Product) Product) State {
	i := s.indexOf(id)
	if i < 0 {
		return s
	}
	next := make([]Product, len(s.Products))
	copy(next, s.Products)
	next[i] = fn(next[i])
	return State{Products: next, Loaded: s.Loaded}
}

func (s State) indexOf(id int64) int {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return i
		}
	}
	return -1
}
