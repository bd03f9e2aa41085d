//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"medboard/internal/blacklist/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
	"medboard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	require.NoError(s.T(), s.pg.Truncate(s.ctx, "blacklist"))
}

func (s *PostgresStoreSuite) newEntry(email string, licenses []string) *models.Entry {
	entry, err := models.NewEntry(id.BlacklistEntryID(uuid.New()), models.ReasonManual,
		"Test Contact", email, "", licenses, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(s.T(), err)
	return entry
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	entry := s.newEntry("barred@clinic.example", []string{"NY-10001"})
	require.NoError(s.T(), s.store.Save(s.ctx, entry))

	found, err := s.store.FindByID(s.ctx, entry.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), entry.Email, found.Email)
	assert.Equal(s.T(), entry.Fingerprints, found.Fingerprints)
	assert.True(s.T(), found.IsActive)

	_, err = s.store.FindByID(s.ctx, id.BlacklistEntryID(uuid.New()))
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExistsFingerprint() {
	entry := s.newEntry("barred@clinic.example", []string{"NY-10001"})
	require.NoError(s.T(), s.store.Save(s.ctx, entry))

	exists, err := s.store.ExistsFingerprint(s.ctx, models.FingerprintsFor("barred@clinic.example", "", nil))
	require.NoError(s.T(), err)
	assert.True(s.T(), exists)

	exists, err = s.store.ExistsFingerprint(s.ctx, models.FingerprintsFor("other@clinic.example", "", nil))
	require.NoError(s.T(), err)
	assert.False(s.T(), exists)

	// Deactivated entries stop matching.
	entry.IsActive = false
	require.NoError(s.T(), s.store.Update(s.ctx, entry))
	exists, err = s.store.ExistsFingerprint(s.ctx, models.FingerprintsFor("barred@clinic.example", "", nil))
	require.NoError(s.T(), err)
	assert.False(s.T(), exists)
}

func (s *PostgresStoreSuite) TestActiveFingerprints() {
	// Two entries sharing a license fingerprint.
	first := s.newEntry("a@clinic.example", []string{"NY-10001"})
	second := s.newEntry("b@clinic.example", []string{"NY-10001"})
	require.NoError(s.T(), s.store.Save(s.ctx, first))
	require.NoError(s.T(), s.store.Save(s.ctx, second))

	fingerprints, err := s.store.ActiveFingerprints(s.ctx)
	require.NoError(s.T(), err)
	// a, b and the shared license: deduped to three.
	assert.Len(s.T(), fingerprints, 3)
}

func (s *PostgresStoreSuite) TestListAndSearch() {
	entry := s.newEntry("barred@clinic.example", []string{"NY-10001"})
	require.NoError(s.T(), s.store.Save(s.ctx, entry))

	active := true
	entries, err := s.store.List(s.ctx, Filter{Reason: models.ReasonManual, Active: &active})
	require.NoError(s.T(), err)
	assert.Len(s.T(), entries, 1)

	entries, err = s.store.List(s.ctx, Filter{Reason: models.ReasonDoctorDeleted})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)

	entries, err = s.store.Search(s.ctx, "ny-10001")
	require.NoError(s.T(), err)
	assert.Len(s.T(), entries, 1)

	entries, err = s.store.Search(s.ctx, "nomatch")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)
}

func (s *PostgresStoreSuite) TestDelete() {
	entry := s.newEntry("barred@clinic.example", nil)
	require.NoError(s.T(), s.store.Save(s.ctx, entry))
	require.NoError(s.T(), s.store.Delete(s.ctx, entry.ID))
	assert.ErrorIs(s.T(), s.store.Delete(s.ctx, entry.ID), sentinel.ErrNotFound)
}
