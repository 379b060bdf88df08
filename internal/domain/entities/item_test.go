package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portoseguro/backend/internal/domain/entities"
)

func TestNewRegistry_CanonicalizesAndRegistersMembers(t *testing.T) {
	reg, err := entities.NewRegistry(3, []entities.Item{
		{ID: " ovo ", Kind: entities.ItemKindBaseFood},
		{ID: "pão de queijo", Kind: entities.ItemKindComposite, Composite: &entities.CompositeDef{
			Main:     []string{"queijo", "Tapioca", "QUEIJO"},
			Minor:    []string{"ovo"},
			Trackers: []string{"lactose"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), reg.Version())
	assert.Equal(t, 5, reg.Len())

	composite, ok := reg.Resolve("PÃO  DE QUEIJO")
	require.True(t, ok)
	assert.Equal(t, entities.ItemKindComposite, composite.Kind)
	assert.Equal(t, []string{"QUEIJO", "TAPIOCA"}, composite.Composite.Main)
	assert.Equal(t, []string{"OVO"}, composite.Composite.Minor)
	assert.Equal(t, []string{"LACTOSE"}, composite.Composite.Trackers)

	lactose, ok := reg.Resolve("lactose")
	require.True(t, ok)
	assert.Equal(t, entities.ItemKindTracker, lactose.Kind)

	queijo, ok := reg.Resolve("queijo")
	require.True(t, ok)
	assert.Equal(t, entities.ItemKindBaseFood, queijo.Kind)
}

func TestNewRegistry_DeclaredKindWinsOverImplicit(t *testing.T) {
	reg, err := entities.NewRegistry(1, []entities.Item{
		{ID: "BOLO", Kind: entities.ItemKindComposite, Composite: &entities.CompositeDef{
			Main: []string{"GLUTEN"},
		}},
		{ID: "GLUTEN", Kind: entities.ItemKindTracker},
	})
	require.NoError(t, err)

	gluten, ok := reg.Resolve("GLUTEN")
	require.True(t, ok)
	assert.Equal(t, entities.ItemKindTracker, gluten.Kind)
}

func TestNewRegistry_ConflictingImplicitKindIsStable(t *testing.T) {
	items := []entities.Item{
		{ID: "MINGAU", Kind: entities.ItemKindComposite, Composite: &entities.CompositeDef{
			Main: []string{"LEITE", "AVEIA"},
		}},
		{ID: "CAFÉ COM LEITE", Kind: entities.ItemKindComposite, Composite: &entities.CompositeDef{
			Main:     []string{"CAFÉ"},
			Trackers: []string{"LEITE"},
		}},
	}

	for i := 0; i < 100; i++ {
		reg, err := entities.NewRegistry(1, items)
		require.NoError(t, err)

		leite, ok := reg.Resolve("LEITE")
		require.True(t, ok)
		require.Equal(t, entities.ItemKindTracker, leite.Kind, "build %d", i)

		aveia, ok := reg.Resolve("AVEIA")
		require.True(t, ok)
		require.Equal(t, entities.ItemKindBaseFood, aveia.Kind, "build %d", i)
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name  string
		items []entities.Item
	}{
		{"empty id", []entities.Item{{ID: "  ", Kind: entities.ItemKindBaseFood}}},
		{"bad kind", []entities.Item{{ID: "OVO", Kind: "recipe"}}},
		{"duplicate", []entities.Item{
			{ID: "ovo", Kind: entities.ItemKindBaseFood},
			{ID: "OVO", Kind: entities.ItemKindBaseFood},
		}},
		{"composite without definition", []entities.Item{{ID: "BOLO", Kind: entities.ItemKindComposite}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := entities.NewRegistry(1, tt.items)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_CandidatesExcludeComposites(t *testing.T) {
	reg := entities.MustRegistry(1, []entities.Item{
		{ID: "PÃO DE QUEIJO", Kind: entities.ItemKindComposite, Composite: &entities.CompositeDef{
			Main: []string{"QUEIJO"}, Trackers: []string{"LACTOSE"},
		}},
		{ID: "ARROZ", Kind: entities.ItemKindBaseFood},
	})

	var ids []string
	for _, item := range reg.Candidates() {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"ARROZ", "LACTOSE", "QUEIJO"}, ids)
	assert.Len(t, reg.Items(), 4)
}

func TestMaxLevel(t *testing.T) {
	assert.Equal(t, entities.LevelNormal, entities.MaxLevel(entities.LevelLight, entities.LevelNormal))
	assert.Equal(t, entities.LevelHeavy, entities.MaxLevel(entities.LevelHeavy, entities.LevelNone))
	assert.False(t, entities.LevelNone.Valid())
	assert.True(t, entities.LevelHeavy.Valid())
}
