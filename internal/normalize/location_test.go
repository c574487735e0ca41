package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/rules"
)

func TestCityStateFromTags(t *testing.T) {
	t.Parallel()

	r := rules.Default()

	t.Run("neighborhood beats city", func(t *testing.T) {
		p, ok := CityStateFromTags([]string{"barradatijuca", "saopaulo"}, r)
		require.True(t, ok)
		assert.Equal(t, "Barra da Tijuca", p.Neighborhood)
		assert.Equal(t, "Rio de Janeiro", p.City)
		assert.Equal(t, "RJ", p.State)
	})

	t.Run("neighborhood in a later tag still wins", func(t *testing.T) {
		p, ok := CityStateFromTags([]string{"#SãoPaulo", "#Savassi"}, r)
		require.True(t, ok)
		assert.Equal(t, "Savassi", p.Neighborhood)
		assert.Equal(t, "Belo Horizonte", p.City)
	})

	t.Run("city only", func(t *testing.T) {
		p, ok := CityStateFromTags([]string{"nutri", "Curitiba"}, r)
		require.True(t, ok)
		assert.Empty(t, p.Neighborhood)
		assert.Equal(t, "Curitiba", p.City)
		assert.Equal(t, "PR", p.State)
	})

	t.Run("alias", func(t *testing.T) {
		p, ok := CityStateFromTags([]string{"nutrifloripa", "floripa"}, r)
		require.True(t, ok)
		assert.Equal(t, "Florianópolis", p.City)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := CityStateFromTags([]string{"fitness", "2024", ""}, r)
		assert.False(t, ok)
		_, ok = CityStateFromTags(nil, r)
		assert.False(t, ok)
	})
}

func TestHashtags(t *testing.T) {
	t.Parallel()

	got := Hashtags("Nutri em #BarraDaTijuca 🌴 #nutrição #barradatijuca #2024")
	assert.Equal(t, []string{"BarraDaTijuca", "nutrição", "2024"}, got)
	assert.Nil(t, Hashtags("sem tags"))
}

func TestParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Address
		ok   bool
	}{
		{
			name: "full address",
			text: "Rua Visconde de Pirajá, 100 - Ipanema, Rio de Janeiro - RJ, 22410-002",
			want: Address{
				Line:    "Rua Visconde de Pirajá, 100 - Ipanema, Rio de Janeiro - RJ, 22410-002",
				ZipCode: "22410-002",
				City:    "Rio de Janeiro",
				State:   "RJ",
			},
			ok: true,
		},
		{
			name: "avenue with slash state",
			text: "Av. Paulista, 1000 São Paulo/SP",
			want: Address{Line: "Av. Paulista, 1000 São Paulo/SP", City: "São Paulo", State: "SP"},
			ok:   true,
		},
		{
			name: "postal code only",
			text: "CEP 01310100",
			want: Address{Line: "CEP 01310100", ZipCode: "01310-100"},
			ok:   true,
		},
		{
			name: "country name",
			text: "Curitiba, Brasil",
			want: Address{Line: "Curitiba, Brasil"},
			ok:   true,
		},
		{name: "person name", text: "Maria Silva", ok: false},
		{name: "name containing street word inside", text: "Ruana Avenidas", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseAddress(tt.text)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
