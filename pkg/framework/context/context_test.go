/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package context

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	mockstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/messenger"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/indy"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/jsonld"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/transport/http"
	mockservice "github.com/hyperledger/aries-credentials-go/pkg/mock/didcomm/service"
	mockindy "github.com/hyperledger/aries-credentials-go/pkg/mock/indy"
	mockld "github.com/hyperledger/aries-credentials-go/pkg/mock/ld"
	"github.com/hyperledger/aries-credentials-go/pkg/store/connection"
	"github.com/hyperledger/aries-credentials-go/pkg/store/verifiable"
)

type staticLookup struct{}

func (staticLookup) GetConnection(_ context.Context, id string) (*service.ConnectionRecord, error) {
	return &service.ConnectionRecord{ConnectionID: id}, nil
}

func TestNewProvider(t *testing.T) {
	t.Run("test new with default", func(t *testing.T) {
		prov, err := New()
		require.NoError(t, err)
		require.NotNil(t, prov.StorageProvider())
		require.NotNil(t, prov.ConnectionRecorder())
		require.NotNil(t, prov.ConnectionLookup())
		require.Nil(t, prov.Messenger())
		require.Nil(t, prov.CredentialStore())
		require.Empty(t, prov.FormatServices())
	})

	t.Run("test error return from options", func(t *testing.T) {
		_, err := New(func(opts *Provider) error {
			return errors.New("error creating the framework option")
		})
		require.ErrorContains(t, err, "option failed")
	})

	t.Run("test new with messenger", func(t *testing.T) {
		messenger := &mockservice.MockMessenger{}

		prov, err := New(WithMessenger(messenger))
		require.NoError(t, err)
		require.Equal(t, messenger, prov.Messenger())
	})

	t.Run("test new with http transport", func(t *testing.T) {
		prov, err := New(WithHTTPTransport())
		require.NoError(t, err)
		require.NotNil(t, prov.OutboundTransport())
		require.IsType(t, &messenger.Messenger{}, prov.Messenger())
	})

	t.Run("test explicit messenger wins over the transport", func(t *testing.T) {
		m := &mockservice.MockMessenger{}

		prov, err := New(WithHTTPTransport(), WithMessenger(m))
		require.NoError(t, err)
		require.Equal(t, m, prov.Messenger())
	})

	t.Run("test http transport error", func(t *testing.T) {
		_, err := New(WithHTTPTransport(http.WithOutboundHTTPClient(nil)))
		require.ErrorContains(t, err, "http outbound transport")
	})

	t.Run("test connection store error", func(t *testing.T) {
		_, err := New(WithStorageProvider(&mockstorage.MockStoreProvider{ErrOpenStoreHandle: errors.New("db down")}))
		require.ErrorContains(t, err, "initialize context connection recorder")
	})

	t.Run("test new with connection lookup", func(t *testing.T) {
		prov, err := New(WithConnectionLookup(staticLookup{}))
		require.NoError(t, err)
		require.Nil(t, prov.ConnectionRecorder())

		conn, err := prov.ConnectionLookup().GetConnection(context.Background(), "conn-1")
		require.NoError(t, err)
		require.Equal(t, "conn-1", conn.ConnectionID)
	})

	t.Run("test connection recorder feeds the lookup", func(t *testing.T) {
		prov, err := New(WithStorageProvider(mem.NewProvider()))
		require.NoError(t, err)

		require.NoError(t, prov.ConnectionRecorder().SaveConnectionRecord(&connection.Record{
			ConnectionID: "conn-1",
			State:        connection.StateCompleted,
			MyDID:        "did:example:me",
			TheirDID:     "did:example:them",
		}))

		conn, err := prov.ConnectionLookup().GetConnection(context.Background(), "conn-1")
		require.NoError(t, err)
		require.Equal(t, "did:example:them", conn.TheirDID)

		_, err = prov.ConnectionLookup().GetConnection(context.Background(), "conn-2")
		require.ErrorIs(t, err, service.ErrConnectionNotFound)
	})

	t.Run("test new with indy", func(t *testing.T) {
		ledger := mockindy.NewMockLedger(&indy.CredentialDefinition{ID: "cred-def-1", SchemaID: "schema-1"})
		holder := &mockindy.MockHolder{}

		prov, err := New(WithIndy(ledger, &mockindy.MockIssuer{}, holder, indy.WithLedgerRetry(0)))
		require.NoError(t, err)
		require.Equal(t, ledger, prov.Ledger())
		require.Equal(t, holder, prov.IndyHolder())
		require.NotNil(t, prov.IndyIssuer())
		require.Len(t, prov.FormatServices(), 1)
		require.Equal(t, issuecredential.FormatIndy, prov.FormatServices()[0].Type())
	})

	t.Run("test indy requires a ledger", func(t *testing.T) {
		_, err := New(WithIndy(nil, nil, nil))
		require.ErrorContains(t, err, "indy ledger is required")
	})

	t.Run("test new with json-ld uses the verifiable store", func(t *testing.T) {
		store := mem.NewProvider()

		prov, err := New(WithStorageProvider(store), WithJSONLD(&mockld.MockSigner{}))
		require.NoError(t, err)
		require.NotNil(t, prov.LDSigner())
		require.IsType(t, &verifiable.Store{}, prov.CredentialStore())
		require.Len(t, prov.FormatServices(), 1)
		require.Equal(t, issuecredential.FormatJSONLD, prov.FormatServices()[0].Type())

		id, err := prov.CredentialStore().SaveCredential("vc-1", json.RawMessage(`{"id":"http://example.edu/1"}`))
		require.NoError(t, err)
		require.Equal(t, "http://example.edu/1", id)
	})

	t.Run("test new with credential store only", func(t *testing.T) {
		vcs := &mockld.MockCredentialStore{}

		prov, err := New(WithCredentialStore(vcs))
		require.NoError(t, err)
		require.Equal(t, vcs, prov.CredentialStore())
		require.Len(t, prov.FormatServices(), 1)
	})

	t.Run("test json-ld schema error", func(t *testing.T) {
		_, err := New(WithJSONLD(&mockld.MockSigner{}, jsonld.WithSchema("{")))
		require.ErrorContains(t, err, "initialize context json-ld format")
	})

	t.Run("test explicit format services", func(t *testing.T) {
		ld, err := jsonld.New(&mockld.MockProvider{})
		require.NoError(t, err)

		prov, err := New(WithFormatServices(ld), WithIndy(mockindy.NewMockLedger(), nil, nil))
		require.NoError(t, err)
		require.Equal(t, []issuecredential.FormatService{ld}, prov.FormatServices())
	})
}
