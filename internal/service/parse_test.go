package service

import (
	"errors"
	"testing"

	"estate-suggest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeSuggestions = `{
  "suggestions": [
    {"address": "Краснодар, ул. Красная, 120", "description": "Светлая двушка в центре", "price": 9500000, "area": 58.4, "rooms": 2, "floor": 7, "total_floors": 16, "year_built": 2015},
    {"address": "Краснодар, Фестивальный мкр., ул. Тургенева, 33", "description": "Квартира с ремонтом", "price": 8700000, "area": 54, "rooms": 2, "floor": 3, "total_floors": 9, "year_built": 1989},
    {"address": "Краснодар, ЖК Панорама", "description": "Студия у парка", "price": 4200000.5, "area": 27.1, "rooms": 0, "floor": 12, "total_floors": 24, "year_built": 2021}
  ]
}`

func expectedThree() []model.Suggestion {
	return []model.Suggestion{
		{Address: "Краснодар, ул. Красная, 120", Description: "Светлая двушка в центре", Price: 9500000, Area: 58.4, Rooms: 2, Floor: 7, TotalFloors: 16, YearBuilt: 2015},
		{Address: "Краснодар, Фестивальный мкр., ул. Тургенева, 33", Description: "Квартира с ремонтом", Price: 8700000, Area: 54, Rooms: 2, Floor: 3, TotalFloors: 9, YearBuilt: 1989},
		{Address: "Краснодар, ЖК Панорама", Description: "Студия у парка", Price: 4200000.5, Area: 27.1, Rooms: 0, Floor: 12, TotalFloors: 24, YearBuilt: 2021},
	}
}

func requireKind(t *testing.T, err error, want Kind) *SuggestError {
	t.Helper()
	require.Error(t, err)
	var se *SuggestError
	require.True(t, errors.As(err, &se), "expected *SuggestError, got %T", err)
	require.Equal(t, want, se.Kind, "error: %v", err)
	return se
}

func TestParseSuggestions_ValidResponseKeepsOrder(t *testing.T) {
	resp, err := ParseSuggestions(threeSuggestions)
	require.NoError(t, err)
	assert.Equal(t, expectedThree(), resp.Suggestions)
}

func TestParseSuggestions_Idempotent(t *testing.T) {
	first, err := ParseSuggestions(threeSuggestions)
	require.NoError(t, err)
	second, err := ParseSuggestions(threeSuggestions)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseSuggestions_BareArrayIsWrappedBeforeValidation(t *testing.T) {
	t.Run("valid elements", func(t *testing.T) {
		resp, err := ParseSuggestions(`[{"address": "Москва, Арбат, 10", "description": "Тихий двор", "price": 25000000, "area": 70, "rooms": 3, "floor": 4, "total_floors": 6, "year_built": 1935}]`)
		require.NoError(t, err)
		require.Len(t, resp.Suggestions, 1)
		assert.Equal(t, "Москва, Арбат, 10", resp.Suggestions[0].Address)
	})

	t.Run("partial element still fails validation", func(t *testing.T) {
		_, err := ParseSuggestions(`[{"address": "..."}]`)
		se := requireKind(t, err, KindMalformedOutput)
		assert.NotEmpty(t, se.Violations)
		assert.False(t, se.ArrayForObject)
	})
}

func TestParseSuggestions_NoSuggestions(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty object", content: `{}`},
		{name: "null suggestions", content: `{"suggestions": null}`},
		{name: "other keys only", content: `{"results": []}`},
		{name: "false", content: `{"suggestions": false}`},
		{name: "empty string", content: `{"suggestions": ""}`},
		{name: "zero", content: `{"suggestions": 0}`},
		{name: "float zero", content: `{"suggestions": 0.0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuggestions(tt.content)
			requireKind(t, err, KindNoSuggestions)
		})
	}
}

func TestParseSuggestions_EmptyListIsAccepted(t *testing.T) {
	resp, err := ParseSuggestions(`{"suggestions": []}`)
	require.NoError(t, err)
	assert.NotNil(t, resp.Suggestions)
	assert.Empty(t, resp.Suggestions)
}

func TestParseSuggestions_MalformedOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: `Вот три варианта: ...`},
		{name: "empty string", content: ``},
		{name: "trailing text", content: `{"suggestions": []} спасибо`},
		{name: "null", content: `null`},
		{name: "number", content: `42`},
		{name: "string", content: `"suggestions"`},
		{name: "bool", content: `true`},
		{name: "suggestions is an object", content: `{"suggestions": {"address": "x"}}`},
		{name: "suggestions is true", content: `{"suggestions": true}`},
		{name: "suggestions is a non-empty string", content: `{"suggestions": "нет вариантов"}`},
		{name: "suggestions is a number", content: `{"suggestions": 3}`},
		{name: "rooms is fractional", content: `{"suggestions": [{"address": "a", "description": "d", "price": 1, "area": 1, "rooms": 1.5, "floor": 1, "total_floors": 1, "year_built": 2000}]}`},
		{name: "price is a string", content: `{"suggestions": [{"address": "a", "description": "d", "price": "10 млн", "area": 1, "rooms": 1, "floor": 1, "total_floors": 1, "year_built": 2000}]}`},
		{name: "empty address", content: `{"suggestions": [{"address": "", "description": "d", "price": 1, "area": 1, "rooms": 1, "floor": 1, "total_floors": 1, "year_built": 2000}]}`},
		{name: "floor zero", content: `{"suggestions": [{"address": "a", "description": "d", "price": 1, "area": 1, "rooms": 1, "floor": 0, "total_floors": 1, "year_built": 2000}]}`},
		{name: "two digit year", content: `{"suggestions": [{"address": "a", "description": "d", "price": 1, "area": 1, "rooms": 1, "floor": 1, "total_floors": 1, "year_built": 99}]}`},
		{name: "integral float in int field", content: `{"suggestions": [{"address": "a", "description": "d", "price": 1, "area": 1, "rooms": 2.0, "floor": 1, "total_floors": 1, "year_built": 2000}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseSuggestions(tt.content)
			assert.Nil(t, resp)
			requireKind(t, err, KindMalformedOutput)
		})
	}
}

func TestParseSuggestions_MissingYearBuiltRejectsWholeResponse(t *testing.T) {
	content := `{"suggestions": [
		{"address": "a", "description": "d", "price": 1, "area": 1, "rooms": 1, "floor": 1, "total_floors": 5, "year_built": 2000},
		{"address": "b", "description": "d", "price": 1, "area": 1, "rooms": 1, "floor": 1, "total_floors": 5},
		{"address": "c", "description": "d", "price": 1, "area": 1, "rooms": 1, "floor": 1, "total_floors": 5, "year_built": 2001}
	]}`

	resp, err := ParseSuggestions(content)
	assert.Nil(t, resp)
	se := requireKind(t, err, KindMalformedOutput)
	require.Len(t, se.Violations, 1)
	assert.Contains(t, se.Violations[0], "year_built")
}

func TestParseSuggestions_ArrayForObject(t *testing.T) {
	_, err := ParseSuggestions(`{"suggestions": [["Москва", 10000000]]}`)
	se := requireKind(t, err, KindMalformedOutput)
	assert.True(t, se.ArrayForObject)
}

func TestParseSuggestions_FencedBlock(t *testing.T) {
	content := "```json\n" + threeSuggestions + "\n```"
	resp, err := ParseSuggestions(content)
	require.NoError(t, err)
	assert.Equal(t, expectedThree(), resp.Suggestions)
}

func TestParseSuggestions_OptionalIDAndExtraFields(t *testing.T) {
	content := `{"suggestions": [{"id": 17, "address": "a", "description": "d", "price": 1, "area": 1, "rooms": 1, "floor": 1, "total_floors": 1, "year_built": 2000, "metro": "Динамо"}], "note": "ok"}`

	resp, err := ParseSuggestions(content)
	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 1)
	require.NotNil(t, resp.Suggestions[0].ID)
	assert.Equal(t, int64(17), *resp.Suggestions[0].ID)
}
