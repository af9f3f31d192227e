package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)

	ids := []ID{
		Default,
		NihongoTranslate,
		NihongoExplain,
		NihongoSceneMockCafe,
		NihongoSceneMockRestaurant,
		NihongoSceneMockClothes,
		NihongoSceneMockStreet,
		NihongoSceneMockSmallTalk,
	}
	for _, id := range ids {
		assert.Equal(t, id, catalog.Normalize(id))
		assert.NotEmpty(t, catalog.System(id), id)
	}

	def := catalog.System(Default)
	assert.True(t, strings.HasPrefix(catalog.System(NihongoTranslate), def+"\n"))
	assert.Contains(t, catalog.System(NihongoSceneMockCafe), "mock conversation mode")
	assert.Contains(t, catalog.System(NihongoSceneMockCafe), "waiter in a cafe")
}

func TestUnknownFallsBackToDefault(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default, catalog.Normalize("nope"))
	assert.Equal(t, catalog.System(Default), catalog.System("nope"))
}

func TestParseErrors(t *testing.T) {
	_, err := parse([]byte("prompts:\n  default: [missing]\n"))
	assert.ErrorContains(t, err, "unknown fragment")

	_, err = parse([]byte("fragments:\n  a: x\nprompts:\n  other: [a]\n"))
	assert.ErrorContains(t, err, "is missing")

	_, err = parse([]byte("prompts: ["))
	assert.Error(t, err)
}
