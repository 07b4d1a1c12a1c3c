/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/indy"
	mockservice "github.com/hyperledger/aries-credentials-go/pkg/mock/didcomm/service"
	mockindy "github.com/hyperledger/aries-credentials-go/pkg/mock/indy"
)

const (
	// Alice issues credentials.
	Alice = "Alice"
	// Bob holds credentials.
	Bob = "Bob"
)

// mockContext returns the provider of agent. Messages it sends are delivered to the agent on the other side
// of the connection, which is named after it.
//
//nolint:forbidigo
func mockContext(agent string, ledger indy.Ledger, agents map[string]*Client) Provider {
	messenger := &mockservice.MockMessenger{}
	messenger.SendFunc = func(ctx context.Context, msg service.DIDCommMsgMap, theirName string) error {
		src, err := json.Marshal(msg)
		if err != nil {
			return err
		}

		didMap, err := service.ParseDIDCommMsgMap(src)
		if err != nil {
			return err
		}

		fmt.Println(theirName, "received", didMap.Type(), "from", agent)

		return agents[theirName].HandleInbound(ctx, didMap, agent)
	}

	return &testProvider{
		messenger: messenger,
		formats: []issuecredential.FormatService{indy.New(&mockindy.MockProvider{
			LedgerValue: ledger,
			IssuerValue: &mockindy.MockIssuer{SchemaID: "schema-1"},
			HolderValue: &mockindy.MockHolder{},
		})},
	}
}

func ExampleClient_AcceptProposal() {
	ctx := context.Background()
	ledger := mockindy.NewMockLedger(&indy.CredentialDefinition{ID: credDefID, SchemaID: "schema-1"})
	agents := map[string]*Client{}

	// Both agents accept messages matching what they asked for.
	policy := issuecredential.WithAutoAccept(issuecredential.AutoAcceptContentApproved)

	clientAlice, err := New(mockContext(Alice, ledger, agents), policy)
	if err != nil {
		panic(err)
	}

	clientBob, err := New(mockContext(Bob, ledger, agents), policy)
	if err != nil {
		panic(err)
	}

	agents[Alice], agents[Bob] = clientAlice, clientBob

	// Bob asks Alice for a credential.
	recBob, err := clientBob.ProposeCredential(ctx, issuecredential.V2, &ProposeCredentialOptions{
		ConnectionID: Alice,
		CredentialFormats: issuecredential.CredentialFormats{Indy: &issuecredential.IndyCredentialFormat{
			CredentialDefinitionID: credDefID,
			Attributes:             []issuecredential.CredentialAttribute{{Name: "name", Value: "Bob"}},
		}},
	})
	if err != nil {
		panic(err)
	}

	// Alice accepts the proposal. The rest of the exchange runs on its own.
	proposals, err := clientAlice.FindAllByQuery(map[string]string{
		"state": string(issuecredential.StateProposalReceived),
	})
	if err != nil {
		panic(err)
	}

	recAlice, err := clientAlice.AcceptProposal(ctx, proposals[0].ID, nil)
	if err != nil {
		panic(err)
	}

	recAlice, err = clientAlice.GetByID(recAlice.ID)
	if err != nil {
		panic(err)
	}

	recBob, err = clientBob.GetByID(recBob.ID)
	if err != nil {
		panic(err)
	}

	fmt.Println(Alice, "exchange is", recAlice.State)
	fmt.Println(Bob, "exchange is", recBob.State)

	// Output:
	// Alice received https://didcomm.org/issue-credential/2.0/propose-credential from Bob
	// Bob received https://didcomm.org/issue-credential/2.0/offer-credential from Alice
	// Alice received https://didcomm.org/issue-credential/2.0/request-credential from Bob
	// Bob received https://didcomm.org/issue-credential/2.0/issue-credential from Alice
	// Alice received https://didcomm.org/issue-credential/2.0/ack from Bob
	// Alice exchange is done
	// Bob exchange is done
}
