package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-service/internal/resolve/model"
)

func TestStoreImportAndLookup(t *testing.T) {
	s := NewStore()

	n := s.Import([]model.CachedMapping{
		{ClientID: "c1", Key: "а77", EntryID: "3", Confidence: 100, Verified: true},
		{ClientID: "c1", Key: "б12", EntryID: "4", Confidence: 80, Verified: false},
		{ClientID: "", Key: "x", EntryID: "1", Verified: true}, // невалидная, пропуск
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, s.Size())

	m, err := s.Lookup("c1", "а77")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "3", m.EntryID)
	assert.True(t, m.Verified)

	// неподтверждённая запись ушла в предложения, Lookup её не видит
	m, err = s.Lookup("c1", "б12")
	require.NoError(t, err)
	assert.Nil(t, m)

	// чужой клиент
	m, err = s.Lookup("c2", "а77")
	require.NoError(t, err)
	assert.Nil(t, m)

	// пустые аргументы — промах
	m, err = s.Lookup("", "а77")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestStoreImportLastWins(t *testing.T) {
	s := NewStore()
	s.Import([]model.CachedMapping{{ClientID: "c1", Key: "к1", EntryID: "старый", Verified: true}})
	s.Import([]model.CachedMapping{{ClientID: "c1", Key: "к1", EntryID: "новый", Verified: true}})

	m, err := s.Lookup("c1", "к1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "новый", m.EntryID)
	assert.Equal(t, 1, s.Size())
}

func TestStorePropose(t *testing.T) {
	s := NewStore()

	s.Propose(model.CachedMapping{ClientID: "c1", Key: "к1", EntryID: "1", Confidence: 72})
	s.Propose(model.CachedMapping{ClientID: "c1", Key: "к1", EntryID: "2", Confidence: 80})
	// слабее лучшего — игнорируется
	s.Propose(model.CachedMapping{ClientID: "c1", Key: "к1", EntryID: "3", Confidence: 75})

	props := s.Proposals()
	require.Len(t, props, 1)
	assert.Equal(t, "2", props[0].EntryID)
	assert.Equal(t, 80, props[0].Confidence)
	assert.False(t, props[0].Verified)
}

func TestStoreProposeNeverOverridesVerified(t *testing.T) {
	s := NewStore()
	s.Import([]model.CachedMapping{{ClientID: "c1", Key: "к1", EntryID: "ручной", Confidence: 100, Verified: true}})

	s.Propose(model.CachedMapping{ClientID: "c1", Key: "к1", EntryID: "авто", Confidence: 99})

	assert.Empty(t, s.Proposals())
	m, err := s.Lookup("c1", "к1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "ручной", m.EntryID)
}

func TestStoreProposalsDeterministicOrder(t *testing.T) {
	s := NewStore()
	s.Propose(model.CachedMapping{ClientID: "c2", Key: "б", EntryID: "1", Confidence: 80})
	s.Propose(model.CachedMapping{ClientID: "c1", Key: "я", EntryID: "2", Confidence: 80})
	s.Propose(model.CachedMapping{ClientID: "c1", Key: "а", EntryID: "3", Confidence: 80})

	props := s.Proposals()
	require.Len(t, props, 3)
	assert.Equal(t, []string{"c1", "c1", "c2"}, []string{props[0].ClientID, props[1].ClientID, props[2].ClientID})
	assert.Equal(t, "а", props[0].Key)
	assert.Equal(t, "я", props[1].Key)
}
