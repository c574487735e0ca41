package aiextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Result
	}{
		{
			name: "plain json",
			text: `{"full_name":"Maria Silva","email":"maria@gmail.com","phone":"11999999999"}`,
			want: Result{FullName: "Maria Silva", Email: "maria@gmail.com", Phone: "11999999999"},
		},
		{
			name: "fenced with nulls",
			text: "```json\n{\"full_name\": \"Ana Lima\", \"email\": null, \"phone\": null}\n```",
			want: Result{FullName: "Ana Lima"},
		},
		{
			name: "prose around object",
			text: `Here you go: {"full_name":" João ","email":"N/A","phone":""} hope it helps`,
			want: Result{FullName: "João"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseAnswer(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseAnswer_Errors(t *testing.T) {
	t.Parallel()

	_, err := parseAnswer("")
	assert.Error(t, err)
	_, err = parseAnswer("no json here")
	assert.Error(t, err)
	_, err = parseAnswer(`{"full_name": 12}`)
	assert.Error(t, err)
}

func TestResult_Empty(t *testing.T) {
	t.Parallel()

	var nilResult *Result
	assert.True(t, nilResult.Empty())
	assert.True(t, (&Result{Model: "m"}).Empty())
	assert.False(t, (&Result{Phone: "1"}).Empty())
}

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("  {\"a\":1}  "))
	assert.Equal(t, "plain", cleanJSON("plain"))
}
