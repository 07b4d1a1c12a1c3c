/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/indy"
	mockindy "github.com/hyperledger/aries-credentials-go/pkg/mock/indy"
)

const credDefID = "Th7MpTaRZVRYnPiabds81Y:3:CL:17:default"

// nolint:gochecknoglobals
var attributes = []issuecredential.CredentialAttribute{
	{Name: "name", Value: "Alice"},
	{Name: "age", Value: "30"},
}

type fixture struct {
	ledger *mockindy.MockLedger
	issuer *mockindy.MockIssuer
	holder *mockindy.MockHolder
	svc    *indy.Service
}

func newFixture() *fixture {
	f := &fixture{
		ledger: mockindy.NewMockLedger(&indy.CredentialDefinition{ID: credDefID, SchemaID: "schema-1", Type: "CL"}),
		issuer: &mockindy.MockIssuer{SchemaID: "schema-1"},
		holder: &mockindy.MockHolder{},
	}

	f.svc = indy.New(&mockindy.MockProvider{LedgerValue: f.ledger, IssuerValue: f.issuer, HolderValue: f.holder},
		indy.WithLedgerRetry(0))

	return f
}

func indyPayload() *issuecredential.CredentialFormats {
	return &issuecredential.CredentialFormats{Indy: &issuecredential.IndyCredentialFormat{
		CredentialDefinitionID: credDefID,
		Attributes:             attributes,
	}}
}

func jsonAttachment(t *testing.T, id string, v interface{}) *decorator.Attachment {
	t.Helper()

	att, err := decorator.NewJSONAttachment(id, v)
	require.NoError(t, err)

	return att
}

func TestService_Format(t *testing.T) {
	svc := newFixture().svc

	require.Equal(t, issuecredential.FormatIndy, svc.Type())
	require.True(t, svc.Supports(issuecredential.IndyProposeFormat))
	require.True(t, svc.Supports(issuecredential.IndyIssueFormat))
	require.False(t, svc.Supports(issuecredential.LDProofVCDetailFormat))
	require.True(t, svc.HasPayload(indyPayload()))
	require.False(t, svc.HasPayload(&issuecredential.CredentialFormats{}))
	require.False(t, svc.HasPayload(nil))
}

func TestService_CreateProposal(t *testing.T) {
	ctx := context.Background()
	svc := newFixture().svc

	t.Run("missing payload", func(t *testing.T) {
		_, err := svc.CreateProposal(ctx, &issuecredential.Record{}, &issuecredential.CredentialFormats{})
		require.ErrorIs(t, err, issuecredential.ErrMissingProposalPayload)
	})

	t.Run("filter and preview", func(t *testing.T) {
		payload := indyPayload()
		payload.Indy.SchemaName = "degree"

		fa, err := svc.CreateProposal(ctx, &issuecredential.Record{}, payload)
		require.NoError(t, err)
		require.Equal(t, issuecredential.IndyProposeFormat, fa.Format.Format)
		require.Equal(t, fa.Format.AttachID, fa.Attachment.ID)
		require.Equal(t, attributes, fa.Preview.Attributes)

		filter := &indy.Filter{}
		require.NoError(t, fa.Attachment.Decode(filter))
		require.Equal(t, &indy.Filter{CredDefID: credDefID, SchemaName: "degree"}, filter)
	})

	t.Run("linked attachments", func(t *testing.T) {
		payload := indyPayload()
		payload.Indy.LinkedAttachments = []issuecredential.LinkedAttachment{
			{AttributeName: "photo", Attachment: *jsonAttachment(t, "photo-1", "cGhvdG8=")},
		}

		fa, err := svc.CreateProposal(ctx, &issuecredential.Record{}, payload)
		require.NoError(t, err)
		require.Len(t, fa.Preview.Attributes, 3)
		require.Regexp(t, "^hl:", fa.Preview.Attributes[2].Value)
		require.Len(t, fa.LinkedAttachments, 1)
	})
}

func TestService_CreateOffer(t *testing.T) {
	ctx := context.Background()

	t.Run("missing issuer", func(t *testing.T) {
		svc := indy.New(&mockindy.MockProvider{})

		_, err := svc.CreateOffer(ctx, &issuecredential.Record{}, indyPayload(), nil)
		require.ErrorIs(t, err, issuecredential.ErrMissingIssuerService)
	})

	t.Run("missing credential definition", func(t *testing.T) {
		svc := newFixture().svc

		_, err := svc.CreateOffer(ctx, &issuecredential.Record{}, &issuecredential.CredentialFormats{
			Indy: &issuecredential.IndyCredentialFormat{Attributes: attributes},
		}, nil)
		require.ErrorIs(t, err, issuecredential.ErrMissingCredentialDefinition)
	})

	t.Run("answering a proposal", func(t *testing.T) {
		svc := newFixture().svc
		proposal := jsonAttachment(t, "proposal-1", &indy.Filter{CredDefID: credDefID})

		fa, err := svc.CreateOffer(ctx, &issuecredential.Record{CredentialAttributes: attributes}, nil, proposal)
		require.NoError(t, err)
		require.Equal(t, "proposal-1", fa.Format.AttachID)
		require.Equal(t, issuecredential.IndyOfferFormat, fa.Format.Format)
		require.Equal(t, attributes, fa.Preview.Attributes)

		offer := &indy.CredentialOffer{}
		require.NoError(t, fa.Attachment.Decode(offer))
		require.Equal(t, credDefID, offer.CredDefID)
		require.NotEmpty(t, offer.Nonce)
	})

	t.Run("issuer error", func(t *testing.T) {
		f := newFixture()
		f.issuer.ErrOffer = errors.New("wallet closed")

		_, err := f.svc.CreateOffer(ctx, &issuecredential.Record{}, indyPayload(), nil)
		require.ErrorContains(t, err, "wallet closed")
		require.ErrorContains(t, err, credDefID)
	})
}

func TestService_Process(t *testing.T) {
	ctx := context.Background()
	svc := newFixture().svc
	rec := &issuecredential.Record{ID: "rec-1"}

	require.NoError(t, svc.ProcessProposal(ctx, rec, jsonAttachment(t, "p", &indy.Filter{SchemaID: "schema-1"})))
	require.ErrorIs(t, svc.ProcessProposal(ctx, rec, nil), issuecredential.ErrMissingAttachment)

	require.NoError(t, svc.ProcessOffer(ctx, rec, jsonAttachment(t, "o", &indy.CredentialOffer{CredDefID: credDefID})))

	var perr *issuecredential.ProblemReportError

	err := svc.ProcessOffer(ctx, rec, jsonAttachment(t, "o", &indy.CredentialOffer{}))
	require.ErrorAs(t, err, &perr)
	require.Equal(t, issuecredential.ProblemInvalidOffer, perr.Code)

	err = svc.ProcessRequest(ctx, rec, jsonAttachment(t, "r", &indy.CredentialRequest{}))
	require.ErrorAs(t, err, &perr)
	require.Equal(t, issuecredential.ProblemInvalidRequest, perr.Code)

	var derr *decorator.DecodeError

	err = svc.ProcessOffer(ctx, rec, jsonAttachment(t, "o", []string{"not", "an", "offer"}))
	require.ErrorAs(t, err, &derr)
}

func TestService_RequestAndIssue(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	offer := jsonAttachment(t, "offer-1", &indy.CredentialOffer{SchemaID: "schema-1", CredDefID: credDefID, Nonce: "1"})

	t.Run("missing offer", func(t *testing.T) {
		_, err := f.svc.CreateRequest(ctx, &issuecredential.Record{}, nil, nil)
		require.ErrorIs(t, err, issuecredential.ErrMissingOffer)
	})

	t.Run("missing holder", func(t *testing.T) {
		svc := indy.New(&mockindy.MockProvider{LedgerValue: f.ledger})

		_, err := svc.CreateRequest(ctx, &issuecredential.Record{}, nil, offer)
		require.ErrorIs(t, err, indy.ErrMissingHolderService)
	})

	t.Run("unknown credential definition", func(t *testing.T) {
		unknown := jsonAttachment(t, "offer-2", &indy.CredentialOffer{CredDefID: "unknown"})

		_, err := f.svc.CreateRequest(ctx, &issuecredential.Record{}, nil, unknown)
		require.ErrorIs(t, err, indy.ErrNotFound)
	})

	holderRec := &issuecredential.Record{ID: "holder-rec"}

	fa, err := f.svc.CreateRequest(ctx, holderRec, &issuecredential.CredentialFormats{
		Indy: &issuecredential.IndyCredentialFormat{HolderDID: "did:sov:holder"},
	}, offer)
	require.NoError(t, err)
	require.Equal(t, "offer-1", fa.Format.AttachID)
	require.Equal(t, issuecredential.IndyRequestFormat, fa.Format.Format)
	require.Contains(t, holderRec.Metadata, indy.MetadataKeyRequest)

	request := &indy.CredentialRequest{}
	require.NoError(t, fa.Attachment.Decode(request))
	require.Equal(t, "did:sov:holder", request.ProverDID)

	issuerRec := &issuecredential.Record{ID: "issuer-rec"}

	t.Run("missing attribute values", func(t *testing.T) {
		_, err := f.svc.CreateCredential(ctx, issuerRec, nil, offer, fa.Attachment)

		var perr *issuecredential.ProblemReportError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, issuecredential.ProblemIssuanceAbandoned, perr.Code)
	})

	issuerRec.CredentialAttributes = attributes

	credential, err := f.svc.CreateCredential(ctx, issuerRec, nil, offer, fa.Attachment)
	require.NoError(t, err)
	require.Equal(t, issuecredential.IndyIssueFormat, credential.Format.Format)

	issued := &indy.Credential{}
	require.NoError(t, credential.Attachment.Decode(issued))
	require.Equal(t, indy.AttributeValue{Raw: "30", Encoded: "30"}, issued.Values["age"])
	require.Equal(t, indy.EncodeValue("Alice"), issued.Values["name"].Encoded)

	t.Run("missing request metadata", func(t *testing.T) {
		_, err := f.svc.ProcessCredential(ctx, &issuecredential.Record{ID: "other"}, credential.Attachment)

		var perr *issuecredential.ProblemReportError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, issuecredential.ProblemIssuanceAbandoned, perr.Code)
	})

	t.Run("credential of another definition", func(t *testing.T) {
		other := jsonAttachment(t, "cred", &indy.Credential{CredDefID: "other", Values: issued.Values})

		_, err := f.svc.ProcessCredential(ctx, holderRec, other)

		var perr *issuecredential.ProblemReportError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, issuecredential.ProblemInvalidCredential, perr.Code)
	})

	t.Run("store error", func(t *testing.T) {
		h := newFixture()
		h.holder.ErrStore = errors.New("disk full")

		_, err := h.svc.ProcessCredential(ctx, holderRec, credential.Attachment)
		require.ErrorContains(t, err, "disk full")
	})

	id, err := f.svc.ProcessCredential(ctx, holderRec, credential.Attachment)
	require.NoError(t, err)
	require.Contains(t, f.holder.Stored, id)
	require.Equal(t, credDefID, f.holder.Stored[id].CredDefID)

	require.True(t, f.svc.ShouldAutoRespondToCredential(&issuecredential.AutoRespondInput{
		Record: issuerRec, Credential: credential.Attachment,
	}))
	require.False(t, f.svc.ShouldAutoRespondToCredential(&issuecredential.AutoRespondInput{
		Record:     &issuecredential.Record{CredentialAttributes: attributes[:1]},
		Credential: credential.Attachment,
	}))
}

func TestService_ShouldAutoRespond(t *testing.T) {
	svc := newFixture().svc
	rec := &issuecredential.Record{CredentialAttributes: attributes}
	preview := &issuecredential.CredentialPreview{Attributes: attributes}

	proposal := jsonAttachment(t, "p", &indy.Filter{CredDefID: credDefID})
	offer := jsonAttachment(t, "o", &indy.CredentialOffer{CredDefID: credDefID})
	otherOffer := jsonAttachment(t, "o", &indy.CredentialOffer{CredDefID: "other"})
	request := jsonAttachment(t, "r", &indy.CredentialRequest{CredDefID: credDefID})

	t.Run("proposal", func(t *testing.T) {
		require.True(t, svc.ShouldAutoRespondToProposal(&issuecredential.AutoRespondInput{
			Record: rec, Preview: preview, Proposal: proposal, Offer: offer,
		}))
		require.False(t, svc.ShouldAutoRespondToProposal(&issuecredential.AutoRespondInput{
			Record: rec, Preview: preview, Proposal: proposal,
		}))
		require.False(t, svc.ShouldAutoRespondToProposal(&issuecredential.AutoRespondInput{
			Record: rec, Preview: preview, Proposal: proposal, Offer: otherOffer,
		}))
	})

	t.Run("offer", func(t *testing.T) {
		require.True(t, svc.ShouldAutoRespondToOffer(&issuecredential.AutoRespondInput{
			Record: rec, Preview: preview, Proposal: proposal, Offer: offer,
		}))
		require.False(t, svc.ShouldAutoRespondToOffer(&issuecredential.AutoRespondInput{
			Record: rec, Preview: preview, Offer: offer,
		}))
		require.False(t, svc.ShouldAutoRespondToOffer(&issuecredential.AutoRespondInput{
			Record:   rec,
			Preview:  &issuecredential.CredentialPreview{Attributes: attributes[:1]},
			Proposal: proposal,
			Offer:    offer,
		}))
	})

	t.Run("request", func(t *testing.T) {
		require.True(t, svc.ShouldAutoRespondToRequest(&issuecredential.AutoRespondInput{
			Record: rec, Offer: offer, Request: request,
		}))
		require.True(t, svc.ShouldAutoRespondToRequest(&issuecredential.AutoRespondInput{
			Record: rec, Proposal: proposal, Request: request,
		}))
		require.False(t, svc.ShouldAutoRespondToRequest(&issuecredential.AutoRespondInput{
			Record: rec, Proposal: proposal, Offer: otherOffer, Request: request,
		}))
		require.False(t, svc.ShouldAutoRespondToRequest(&issuecredential.AutoRespondInput{
			Record: rec, Request: request,
		}))
	})
}

type protocolProvider struct {
	store   storage.Provider
	formats []issuecredential.FormatService
}

func (p *protocolProvider) StorageProvider() storage.Provider               { return p.store }
func (p *protocolProvider) ConnectionLookup() service.ConnectionLookup      { return nil }
func (p *protocolProvider) FormatServices() []issuecredential.FormatService { return p.formats }

func TestIndyExchange(t *testing.T) {
	ctx := context.Background()

	for _, newService := range []func(issuecredential.Provider, ...issuecredential.Option) (*issuecredential.Service,
		error){issuecredential.NewV1, issuecredential.NewV2} {
		f := newFixture()

		holder, err := newService(&protocolProvider{store: mem.NewProvider(), formats: []issuecredential.FormatService{f.svc}})
		require.NoError(t, err)

		issuer, err := newService(&protocolProvider{store: mem.NewProvider(), formats: []issuecredential.FormatService{f.svc}},
			issuecredential.WithAutoAccept(issuecredential.AutoAcceptContentApproved))
		require.NoError(t, err)

		_, proposal, err := holder.CreateProposal(ctx, &issuecredential.CreateProposalOptions{
			ConnectionID: "conn-1", CredentialFormats: *indyPayload(),
		})
		require.NoError(t, err)

		iRec, err := issuer.ProcessProposal(ctx, proposal, "conn-2")
		require.NoError(t, err)

		iRec, offer, err := issuer.AcceptProposal(ctx, iRec.ID, nil)
		require.NoError(t, err)

		hRec, err := holder.ProcessOffer(ctx, offer, "conn-1")
		require.NoError(t, err)
		require.True(t, issuecredential.AttributesEqual(attributes, hRec.CredentialAttributes))

		hRec, request, err := holder.AcceptOffer(ctx, hRec.ID, nil)
		require.NoError(t, err)

		iRec, err = issuer.ProcessRequest(ctx, request, "conn-2")
		require.NoError(t, err)

		ok, err := issuer.ShouldAutoRespondToRequest(iRec)
		require.NoError(t, err)
		require.True(t, ok, holder.Version())

		_, credential, err := issuer.AcceptRequest(ctx, iRec.ID, nil)
		require.NoError(t, err)

		hRec, err = holder.ProcessCredential(ctx, credential, "conn-1")
		require.NoError(t, err)
		require.Equal(t, issuecredential.StateCredentialReceived, hRec.State)
		require.Contains(t, f.holder.Stored, hRec.CredentialID)

		id, ok := hRec.Binding(issuecredential.FormatIndy)
		require.True(t, ok)
		require.Equal(t, hRec.CredentialID, id)
	}
}

func TestIndyExchange_ContentApprovedOffer(t *testing.T) {
	ctx := context.Background()
	countered := []issuecredential.CredentialAttribute{
		{Name: "name", Value: "Mallory"},
		{Name: "age", Value: "99"},
	}

	for _, newService := range []func(issuecredential.Provider, ...issuecredential.Option) (*issuecredential.Service,
		error){issuecredential.NewV1, issuecredential.NewV2} {
		f := newFixture()

		holder, err := newService(&protocolProvider{store: mem.NewProvider(), formats: []issuecredential.FormatService{f.svc}},
			issuecredential.WithAutoAccept(issuecredential.AutoAcceptContentApproved))
		require.NoError(t, err)

		issuer, err := newService(&protocolProvider{store: mem.NewProvider(), formats: []issuecredential.FormatService{f.svc}})
		require.NoError(t, err)

		propose := func() *issuecredential.Record {
			_, proposal, err := holder.CreateProposal(ctx, &issuecredential.CreateProposalOptions{
				ConnectionID: "conn-1", CredentialFormats: *indyPayload(),
			})
			require.NoError(t, err)

			iRec, err := issuer.ProcessProposal(ctx, proposal, "conn-2")
			require.NoError(t, err)

			return iRec
		}

		t.Run(string(holder.Version())+" offer equal to the proposal", func(t *testing.T) {
			iRec := propose()

			_, offer, err := issuer.AcceptProposal(ctx, iRec.ID, nil)
			require.NoError(t, err)

			hRec, err := holder.ProcessOffer(ctx, offer, "conn-1")
			require.NoError(t, err)

			ok, err := holder.ShouldAutoRespondToOffer(hRec)
			require.NoError(t, err)
			require.True(t, ok)
		})

		t.Run(string(holder.Version())+" counter offer needs approval", func(t *testing.T) {
			iRec := propose()

			_, offer, err := issuer.NegotiateProposal(ctx, iRec.ID, &issuecredential.ResponseOptions{
				CredentialFormats: issuecredential.CredentialFormats{Indy: &issuecredential.IndyCredentialFormat{
					CredentialDefinitionID: credDefID,
					Attributes:             countered,
				}},
			})
			require.NoError(t, err)

			hRec, err := holder.ProcessOffer(ctx, offer, "conn-1")
			require.NoError(t, err)
			require.True(t, issuecredential.AttributesEqual(attributes, hRec.CredentialAttributes))

			ok, err := holder.ShouldAutoRespondToOffer(hRec)
			require.NoError(t, err)
			require.False(t, ok)

			hRec, _, err = holder.AcceptOffer(ctx, hRec.ID, nil)
			require.NoError(t, err)
			require.True(t, issuecredential.AttributesEqual(countered, hRec.CredentialAttributes))
		})
	}
}
