/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	mockstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/stretchr/testify/require"
)

func newRecordForTest(id, thid string, state State, created time.Time) *Record {
	return &Record{
		ID:              id,
		ThreadID:        thid,
		ConnectionID:    "conn:" + id,
		ProtocolVersion: V2,
		Role:            RoleHolder,
		State:           state,
		CreatedAt:       created,
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, err := NewRepository(mem.NewProvider())
		require.NoError(t, err)
		require.NotNil(t, repo)
	})

	t.Run("open store error", func(t *testing.T) {
		_, err := NewRepository(&mockstorage.MockStoreProvider{ErrOpenStoreHandle: errors.New("open")})
		require.EqualError(t, err, "open store issuecredential: open")
	})

	t.Run("store config error", func(t *testing.T) {
		p := mockstorage.NewMockStoreProvider()
		p.ErrSetStoreConfig = errors.New("config")

		_, err := NewRepository(p)
		require.EqualError(t, err, "set store config issuecredential: config")
	})
}

func TestRepository(t *testing.T) {
	repo, err := NewRepository(mem.NewProvider())
	require.NoError(t, err)

	now := time.Now()
	first := newRecordForTest("1", "thid-1", StateOfferReceived, now)
	second := newRecordForTest("2", "thid-2", StateDone, now.Add(time.Second))
	second.Role = RoleIssuer

	require.NoError(t, repo.Save(second))
	require.NoError(t, repo.Save(first))

	t.Run("get", func(t *testing.T) {
		rec, err := repo.Get("1")
		require.NoError(t, err)
		require.Equal(t, "thid-1", rec.ThreadID)

		_, err = repo.Get("missing")
		require.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("get all is ordered by creation", func(t *testing.T) {
		records, err := repo.GetAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.Equal(t, "1", records[0].ID)
		require.Equal(t, "2", records[1].ID)
	})

	t.Run("find by thread", func(t *testing.T) {
		rec, err := repo.FindByThreadID("thid-2")
		require.NoError(t, err)
		require.Equal(t, "2", rec.ID)

		_, err = repo.FindByThreadID("thid-3")
		require.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("find by query", func(t *testing.T) {
		records, err := repo.FindByQuery(map[string]string{"role": "issuer", "state": "done"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "2", records[0].ID)

		// the connection id holds the ':' query separator
		records, err = repo.FindByQuery(map[string]string{"connectionId": "conn:1"})
		require.NoError(t, err)
		require.Len(t, records, 1)

		records, err = repo.FindByQuery(map[string]string{"state": "abandoned"})
		require.NoError(t, err)
		require.Empty(t, records)

		records, err = repo.FindByQuery(nil)
		require.NoError(t, err)
		require.Len(t, records, 2)

		_, err = repo.FindByQuery(map[string]string{"comment": "x"})
		require.True(t, IsValidationError(err))
	})

	t.Run("update replaces tags", func(t *testing.T) {
		first.State = StateRequestSent
		require.NoError(t, repo.Save(first))

		records, err := repo.FindByQuery(map[string]string{"state": string(StateOfferReceived)})
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete("1"))
		_, err := repo.Get("1")
		require.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestRepository_StoreErrors(t *testing.T) {
	p := mockstorage.NewMockStoreProvider()
	repo, err := NewRepository(p)
	require.NoError(t, err)

	p.Store.ErrPut = errors.New("put")
	require.EqualError(t, repo.Save(&Record{ID: "1"}), "put record 1: put")

	p.Store.ErrGet = errors.New("get")
	_, err = repo.Get("1")
	require.EqualError(t, err, "get record 1: get")

	p.Store.ErrQuery = errors.New("query")
	_, err = repo.GetAll()
	require.ErrorContains(t, err, "query")

	p.Store.ErrDelete = errors.New("delete")
	require.EqualError(t, repo.Delete("1"), "delete record 1: delete")
}
