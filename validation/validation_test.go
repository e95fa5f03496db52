package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"question", "How many orders were placed last week?", nil},
		{"with json", `find users where {"age": {"$gt": 30}}`, nil},
		{"short word", "count", nil},
		{"object id", "show order 507f1f77bcf86cd799439011", nil},
		{"empty", "   ", ErrEmptyQuery},
		{"too long", strings.Repeat("ab ", MaxQueryLength), ErrQueryTooLong},
		{"repeated", "aaaaaa", ErrGibberish},
		{"long run", "hellooooooo there", ErrGibberish},
		{"mashing", "asdfasdf", ErrGibberish},
		{"no letters", "12345 !!!", ErrGibberish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateMongoURI(t *testing.T) {
	tests := []struct {
		uri  string
		want error
	}{
		{"mongodb://localhost:27017/shop", nil},
		{"mongodb+srv://user:pw@cluster0.example.net/shop?retryWrites=true", nil},
		{"  mongodb://localhost  ", nil},
		{"postgres://localhost/shop", ErrURIScheme},
		{"localhost:27017", ErrURIScheme},
		{"mongodb://", ErrURIMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			err := ValidateMongoURI(tt.uri)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateDatabaseName(t *testing.T) {
	assert.NoError(t, ValidateDatabaseName("shop"))
	assert.NoError(t, ValidateDatabaseName("shop_2024-prod"))
	assert.ErrorIs(t, ValidateDatabaseName(""), ErrDatabaseName)
	assert.ErrorIs(t, ValidateDatabaseName("my.db"), ErrDatabaseName)
	assert.ErrorIs(t, ValidateDatabaseName(strings.Repeat("a", 64)), ErrDatabaseName)
}
