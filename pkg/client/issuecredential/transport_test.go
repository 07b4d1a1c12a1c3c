/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/indy"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/transport/http"
	frameworkctx "github.com/hyperledger/aries-credentials-go/pkg/framework/context"
	mockindy "github.com/hyperledger/aries-credentials-go/pkg/mock/indy"
	"github.com/hyperledger/aries-credentials-go/pkg/store/connection"
)

type httpAgent struct {
	client *Client
	ctx    *frameworkctx.Provider
	server *httptest.Server
}

func newHTTPAgent(t *testing.T, ledger indy.Ledger) *httpAgent {
	t.Helper()

	ctx, err := frameworkctx.New(
		frameworkctx.WithHTTPTransport(http.WithOutboundRetry(0, time.Millisecond)),
		frameworkctx.WithIndy(ledger, &mockindy.MockIssuer{SchemaID: "schema-1"}, &mockindy.MockHolder{}),
	)
	require.NoError(t, err)

	client, err := New(ctx, issuecredential.WithAutoAccept(issuecredential.AutoAcceptContentApproved))
	require.NoError(t, err)

	inbound, err := http.NewInboundHandler("", client)
	require.NoError(t, err)

	agent := &httpAgent{client: client, ctx: ctx, server: httptest.NewServer(inbound)}
	t.Cleanup(agent.server.Close)

	return agent
}

// connectHTTP saves the connection myID of agent a to agent b, which knows it as theirID.
func connectHTTP(t *testing.T, a, b *httpAgent, myID, theirID string) {
	t.Helper()

	require.NoError(t, a.ctx.ConnectionRecorder().SaveConnectionRecord(&connection.Record{
		ConnectionID:    myID,
		State:           connection.StateCompleted,
		ServiceEndPoint: b.server.URL + http.DefaultInboundPath + "/" + theirID,
	}))
}

func requireEventuallyState(t *testing.T, c *Client, query map[string]string) *Record {
	t.Helper()

	var found *Record

	require.Eventually(t, func() bool {
		records, err := c.FindAllByQuery(query)
		if err != nil || len(records) == 0 {
			return false
		}

		found = records[0]

		return true
	}, 5*time.Second, 10*time.Millisecond)

	return found
}

func TestClient_HTTPTransport(t *testing.T) {
	ledger := mockindy.NewMockLedger(&indy.CredentialDefinition{ID: credDefID, SchemaID: "schema-1"})

	issuer := newHTTPAgent(t, ledger)
	holder := newHTTPAgent(t, ledger)

	connectHTTP(t, issuer, holder, "issuer-to-holder", "holder-to-issuer")
	connectHTTP(t, holder, issuer, "holder-to-issuer", "issuer-to-holder")

	ctx := context.Background()

	proposal, err := holder.client.ProposeCredential(ctx, issuecredential.V2, &ProposeCredentialOptions{
		ConnectionID: "holder-to-issuer",
		CredentialFormats: issuecredential.CredentialFormats{Indy: &issuecredential.IndyCredentialFormat{
			CredentialDefinitionID: credDefID,
			Attributes:             []issuecredential.CredentialAttribute{{Name: "name", Value: "Bob"}},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, issuecredential.StateProposalSent, proposal.State)

	received := requireEventuallyState(t, issuer.client, map[string]string{
		"state": string(issuecredential.StateProposalReceived),
	})
	require.Equal(t, "issuer-to-holder", received.ConnectionID)
	require.Equal(t, proposal.ThreadID, received.ThreadID)

	_, err = issuer.client.AcceptProposal(ctx, received.ID, nil)
	require.NoError(t, err)

	requireEventuallyState(t, issuer.client, map[string]string{"state": string(issuecredential.StateDone)})
	done := requireEventuallyState(t, holder.client, map[string]string{"state": string(issuecredential.StateDone)})
	require.Equal(t, proposal.ID, done.ID)
}

func TestClient_HTTPTransportUnreachable(t *testing.T) {
	ledger := mockindy.NewMockLedger(&indy.CredentialDefinition{ID: credDefID, SchemaID: "schema-1"})

	holder := newHTTPAgent(t, ledger)

	require.NoError(t, holder.ctx.ConnectionRecorder().SaveConnectionRecord(&connection.Record{
		ConnectionID:    "holder-to-nobody",
		State:           connection.StateCompleted,
		ServiceEndPoint: "http://127.0.0.1:0/didcomm/nobody",
	}))

	_, err := holder.client.ProposeCredential(context.Background(), issuecredential.V2, &ProposeCredentialOptions{
		ConnectionID: "holder-to-nobody",
		CredentialFormats: issuecredential.CredentialFormats{Indy: &issuecredential.IndyCredentialFormat{
			CredentialDefinitionID: credDefID,
		}},
	})
	require.Error(t, err)
}
