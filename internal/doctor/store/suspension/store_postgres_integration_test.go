//go:build integration

package suspension

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"medboard/internal/doctor/models"
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
	require.NoError(s.T(), s.pg.Truncate(s.ctx, "suspensions"))
}

func (s *PostgresStoreSuite) appendRecord(doctorID id.DoctorID, at time.Time) *models.SuspensionRecord {
	record, err := models.NewSuspensionRecord(id.SuspensionID(uuid.New()), doctorID,
		"late paperwork", "", at)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.store.Append(s.ctx, record))
	return record
}

func (s *PostgresStoreSuite) TestLedgerOrdering() {
	doctorID := id.DoctorID(uuid.New())
	base := time.Now().UTC().Truncate(time.Microsecond)
	first := s.appendRecord(doctorID, base)
	second := s.appendRecord(doctorID, base.Add(time.Minute))
	s.appendRecord(id.DoctorID(uuid.New()), base) // unrelated doctor

	records, err := s.store.ListByDoctor(s.ctx, doctorID)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 2)
	assert.Equal(s.T(), first.ID, records[0].ID, "oldest first")
	assert.Equal(s.T(), second.ID, records[1].ID)
}

func (s *PostgresStoreSuite) TestCountActiveIgnoresRevoked() {
	doctorID := id.DoctorID(uuid.New())
	base := time.Now().UTC().Truncate(time.Microsecond)
	record := s.appendRecord(doctorID, base)
	s.appendRecord(doctorID, base.Add(time.Minute))

	count, err := s.store.CountActive(s.ctx, doctorID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, count)

	require.NoError(s.T(), s.store.MarkRevoked(s.ctx, record.ID))
	count, err = s.store.CountActive(s.ctx, doctorID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, count)
}

func (s *PostgresStoreSuite) TestMarkRevoked() {
	record := s.appendRecord(id.DoctorID(uuid.New()), time.Now().UTC())

	require.NoError(s.T(), s.store.MarkRevoked(s.ctx, record.ID))

	found, err := s.store.FindByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), found.Revoked)

	assert.ErrorIs(s.T(), s.store.MarkRevoked(s.ctx, record.ID), sentinel.ErrInvalidState,
		"revoking twice is rejected")
	assert.ErrorIs(s.T(), s.store.MarkRevoked(s.ctx, id.SuspensionID(uuid.New())), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteByDoctor() {
	doctorID := id.DoctorID(uuid.New())
	base := time.Now().UTC().Truncate(time.Microsecond)
	s.appendRecord(doctorID, base)
	s.appendRecord(doctorID, base.Add(time.Minute))
	other := s.appendRecord(id.DoctorID(uuid.New()), base)

	require.NoError(s.T(), s.store.DeleteByDoctor(s.ctx, doctorID))

	records, err := s.store.ListByDoctor(s.ctx, doctorID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), records)

	_, err = s.store.FindByID(s.ctx, other.ID)
	assert.NoError(s.T(), err, "other doctors' ledgers are untouched")
}
