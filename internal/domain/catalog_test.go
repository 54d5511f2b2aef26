package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() State {
	return State{
		Products: []Product{
			{ID: 1, Title: "Red Shoe", Description: "shoe", Image: "shoe.png"},
			{ID: 2, Title: "Blue Hat", Description: "hat", Image: "hat.png", Liked: true},
			{ID: 3, Title: "Green Scarf", Description: "scarf", Image: "scarf.png"},
		},
		Loaded: true,
	}
}

func TestSetProducts_ReplacesSequenceAndMarksLoaded(t *testing.T) {
	state := State{Products: []Product{{ID: 9, Title: "Old"}}}

	input := []Product{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	next := state.SetProducts(input)

	assert.True(t, next.Loaded)
	assert.Equal(t, input, next.Products)
	assert.False(t, state.Loaded, "previous snapshot must not change")

	input[0].Title = "mutated"
	assert.Equal(t, "A", next.Products[0].Title, "state must not alias the caller's slice")
}

func TestAddProduct_AppendsAtEnd(t *testing.T) {
	state := sampleState()
	next := state.AddProduct(Product{ID: 4, Title: "Yellow Belt"})

	require.Len(t, next.Products, 4)
	assert.Equal(t, int64(4), next.Products[3].ID)
	assert.Len(t, state.Products, 3)
	assert.True(t, next.Loaded)
}

func TestAddThenDelete_RestoresSequence(t *testing.T) {
	state := sampleState()
	next := state.AddProduct(Product{ID: 42, Title: "New"}).DeleteProduct(42)

	assert.Equal(t, state, next)
}

func TestEditProduct_MergesOnlyNamedFields(t *testing.T) {
	state := sampleState()
	title := "Crimson Shoe"
	next := state.EditProduct(1, ProductPatch{Title: &title})

	p, ok := next.Find(1)
	require.True(t, ok)
	assert.Equal(t, "Crimson Shoe", p.Title)
	assert.Equal(t, "shoe", p.Description)
	assert.Equal(t, "shoe.png", p.Image)
	assert.False(t, p.Liked)

	old, _ := state.Find(1)
	assert.Equal(t, "Red Shoe", old.Title)
}

func TestToggleLike_TwiceRestoresState(t *testing.T) {
	state := sampleState()

	once := state.ToggleLike(1)
	p, _ := once.Find(1)
	assert.True(t, p.Liked)

	assert.Equal(t, state, once.ToggleLike(1))
}

func TestMissingID_IsNoOp(t *testing.T) {
	state := sampleState()
	title := "Nope"

	assert.Equal(t, state, state.EditProduct(99, ProductPatch{Title: &title}))
	assert.Equal(t, state, state.ToggleLike(99))
	assert.Equal(t, state, state.DeleteProduct(99))
}

func TestDeleteProduct_PreservesOrder(t *testing.T) {
	next := sampleState().DeleteProduct(2)

	require.Len(t, next.Products, 2)
	assert.Equal(t, int64(1), next.Products[0].ID)
	assert.Equal(t, int64(3), next.Products[1].ID)
}

func TestNewProduct(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		image       string
		wantErr     error
	}{
		{name: "valid", title: "New", description: "D", image: "img.png"},
		{name: "blank title", title: "  ", description: "D", image: "img.png", wantErr: ErrTitleRequired},
		{name: "missing description", title: "New", image: "img.png", wantErr: ErrDescriptionRequired},
		{name: "missing image", title: "New", description: "D", wantErr: ErrImageRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct(7, tt.title, tt.description, tt.image)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), p.ID)
			assert.False(t, p.Liked)
		})
	}
}

func TestProductPatch_Validate(t *testing.T) {
	empty := ""
	assert.ErrorIs(t, ProductPatch{Title: &empty}.Validate(), ErrTitleRequired)
	assert.NoError(t, ProductPatch{}.Validate())
}

func TestEditProduct_TrimsLikeNewProduct(t *testing.T) {
	title := "  Crimson Shoe "
	description := " red\n"
	next := sampleState().EditProduct(1, ProductPatch{Title: &title, Description: &description})

	p, ok := next.Find(1)
	require.True(t, ok)
	assert.Equal(t, "Crimson Shoe", p.Title)
	assert.Equal(t, "red", p.Description)
}
