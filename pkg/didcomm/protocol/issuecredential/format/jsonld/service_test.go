/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jsonld_test

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
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/jsonld"
	mockld "github.com/hyperledger/aries-credentials-go/pkg/mock/ld"
)

const proofType = "Ed25519Signature2018"

type fixture struct {
	signer *mockld.MockSigner
	store  *mockld.MockCredentialStore
	svc    *jsonld.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		signer: &mockld.MockSigner{VerificationMethod: "did:example:issuer#key-1"},
		store:  &mockld.MockCredentialStore{},
	}

	svc, err := jsonld.New(&mockld.MockProvider{SignerValue: f.signer, StoreValue: f.store})
	require.NoError(t, err)

	f.svc = svc

	return f
}

func credential() map[string]interface{} {
	return map[string]interface{}{
		"@context": []interface{}{
			"https://www.w3.org/2018/credentials/v1",
			"https://www.w3.org/2018/credentials/examples/v1",
		},
		"type":         []interface{}{"VerifiableCredential", "UniversityDegreeCredential"},
		"issuer":       "did:example:issuer",
		"issuanceDate": "2026-10-01T19:23:24Z",
		"credentialSubject": map[string]interface{}{
			"id":     "did:example:holder",
			"degree": map[string]interface{}{"type": "BachelorDegree", "name": "Bachelor of Science and Arts"},
		},
	}
}

func ldPayload() *issuecredential.CredentialFormats {
	return &issuecredential.CredentialFormats{JSONLD: &issuecredential.JSONLDCredentialFormat{
		Credential: credential(),
		Options:    &issuecredential.LDProofOptions{ProofType: proofType, ProofPurpose: "assertionMethod"},
	}}
}

func jsonAttachment(t *testing.T, id string, v interface{}) *decorator.Attachment {
	t.Helper()

	att, err := decorator.NewJSONAttachment(id, v)
	require.NoError(t, err)

	return att
}

func requireProblem(t *testing.T, err error, code issuecredential.ProblemCode) {
	t.Helper()

	var perr *issuecredential.ProblemReportError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, code, perr.Code)
}

func TestNew(t *testing.T) {
	t.Run("invalid schema", func(t *testing.T) {
		_, err := jsonld.New(&mockld.MockProvider{}, jsonld.WithSchema(`{"type": 12`))
		require.ErrorContains(t, err, "load credential detail schema")
	})

	t.Run("custom schema", func(t *testing.T) {
		svc, err := jsonld.New(&mockld.MockProvider{}, jsonld.WithSchema(`{"type": "object", "required": ["extra"]}`))
		require.NoError(t, err)

		_, err = svc.CreateProposal(context.Background(), &issuecredential.Record{}, ldPayload())
		require.ErrorIs(t, err, jsonld.ErrInvalidDetail)
		require.ErrorContains(t, err, "extra")
	})
}

func TestService_Format(t *testing.T) {
	svc := newFixture(t).svc

	require.Equal(t, issuecredential.FormatJSONLD, svc.Type())
	require.True(t, svc.Supports(issuecredential.LDProofVCDetailFormat))
	require.True(t, svc.Supports(issuecredential.LDProofVCFormat))
	require.False(t, svc.Supports(issuecredential.IndyOfferFormat))
	require.True(t, svc.HasPayload(ldPayload()))
	require.False(t, svc.HasPayload(&issuecredential.CredentialFormats{}))
}

func TestService_CreateProposal(t *testing.T) {
	ctx := context.Background()
	svc := newFixture(t).svc

	t.Run("success", func(t *testing.T) {
		fa, err := svc.CreateProposal(ctx, &issuecredential.Record{}, ldPayload())
		require.NoError(t, err)
		require.Equal(t, issuecredential.Format{AttachID: "ld_proof", Format: issuecredential.LDProofVCDetailFormat}, fa.Format)
		require.Equal(t, jsonld.ProposalAttachID, fa.Attachment.ID)
		require.Nil(t, fa.Preview)

		detail := &issuecredential.JSONLDCredentialFormat{}
		require.NoError(t, fa.Attachment.Decode(detail))
		require.Equal(t, proofType, detail.Options.ProofType)
		require.Equal(t, "did:example:issuer", detail.Credential["issuer"])
	})

	t.Run("missing payload", func(t *testing.T) {
		_, err := svc.CreateProposal(ctx, &issuecredential.Record{}, &issuecredential.CredentialFormats{})
		require.ErrorIs(t, err, issuecredential.ErrMissingProposalPayload)
	})

	t.Run("invalid detail", func(t *testing.T) {
		tests := map[string]func(*issuecredential.JSONLDCredentialFormat){
			"no options":      func(d *issuecredential.JSONLDCredentialFormat) { d.Options = nil },
			"no proof type":   func(d *issuecredential.JSONLDCredentialFormat) { d.Options.ProofType = "" },
			"no issuer":       func(d *issuecredential.JSONLDCredentialFormat) { delete(d.Credential, "issuer") },
			"empty context":   func(d *issuecredential.JSONLDCredentialFormat) { d.Credential["@context"] = []interface{}{} },
			"wrong type":      func(d *issuecredential.JSONLDCredentialFormat) { d.Credential["type"] = []interface{}{"Degree"} },
			"no issuance":     func(d *issuecredential.JSONLDCredentialFormat) { delete(d.Credential, "issuanceDate") },
			"subject is text": func(d *issuecredential.JSONLDCredentialFormat) { d.Credential["credentialSubject"] = "x" },
			"status no type": func(d *issuecredential.JSONLDCredentialFormat) {
				d.Options.CredentialStatus = &issuecredential.CredentialStatus{}
			},
		}

		for name, mutate := range tests {
			t.Run(name, func(t *testing.T) {
				payload := ldPayload()
				mutate(payload.JSONLD)

				_, err := svc.CreateProposal(ctx, &issuecredential.Record{}, payload)
				require.ErrorIs(t, err, jsonld.ErrInvalidDetail)
			})
		}
	})

	t.Run("issuer object", func(t *testing.T) {
		payload := ldPayload()
		payload.JSONLD.Credential["issuer"] = map[string]interface{}{"id": "did:example:issuer", "name": "Uni"}

		_, err := svc.CreateProposal(ctx, &issuecredential.Record{}, payload)
		require.NoError(t, err)
	})
}

func TestService_OfferAndRequest(t *testing.T) {
	ctx := context.Background()
	svc := newFixture(t).svc
	rec := &issuecredential.Record{ID: "rec-1"}

	proposal, err := svc.CreateProposal(ctx, rec, ldPayload())
	require.NoError(t, err)

	t.Run("offer answers the proposal", func(t *testing.T) {
		fa, err := svc.CreateOffer(ctx, rec, nil, proposal.Attachment)
		require.NoError(t, err)
		require.Equal(t, jsonld.ProposalAttachID, fa.Format.AttachID)
		require.True(t, decorator.AttachmentsEqual(proposal.Attachment, fa.Attachment))
	})

	t.Run("payload wins over the proposal", func(t *testing.T) {
		payload := ldPayload()
		payload.JSONLD.Options.ProofType = "BbsBlsSignature2020"

		fa, err := svc.CreateOffer(ctx, rec, payload, proposal.Attachment)
		require.NoError(t, err)
		require.False(t, decorator.AttachmentsEqual(proposal.Attachment, fa.Attachment))
	})

	t.Run("offer without proposal or payload", func(t *testing.T) {
		_, err := svc.CreateOffer(ctx, rec, nil, nil)
		require.ErrorIs(t, err, issuecredential.ErrMissingProposalPayload)
	})

	t.Run("fresh offer gets a new attach id", func(t *testing.T) {
		fa, err := svc.CreateOffer(ctx, rec, ldPayload(), nil)
		require.NoError(t, err)
		require.NotEmpty(t, fa.Format.AttachID)
		require.NotEqual(t, jsonld.ProposalAttachID, fa.Format.AttachID)
	})

	t.Run("request repeats the offer", func(t *testing.T) {
		offer, err := svc.CreateOffer(ctx, rec, ldPayload(), nil)
		require.NoError(t, err)

		fa, err := svc.CreateRequest(ctx, rec, nil, offer.Attachment)
		require.NoError(t, err)
		require.Equal(t, offer.Format.AttachID, fa.Format.AttachID)
		require.True(t, decorator.AttachmentsEqual(offer.Attachment, fa.Attachment))
	})

	t.Run("request without offer", func(t *testing.T) {
		_, err := svc.CreateRequest(ctx, rec, nil, nil)
		require.ErrorIs(t, err, issuecredential.ErrMissingOffer)

		fa, err := svc.CreateRequest(ctx, rec, ldPayload(), nil)
		require.NoError(t, err)
		require.Equal(t, issuecredential.LDProofVCDetailFormat, fa.Format.Format)
	})

	t.Run("invalid offered detail", func(t *testing.T) {
		_, err := svc.CreateRequest(ctx, rec, nil, jsonAttachment(t, "bad",
			map[string]interface{}{"options": map[string]string{"proofType": proofType}}))
		require.ErrorIs(t, err, jsonld.ErrInvalidDetail)
	})
}

func TestService_Process(t *testing.T) {
	ctx := context.Background()
	svc := newFixture(t).svc
	rec := &issuecredential.Record{ID: "rec-1"}

	valid := jsonAttachment(t, "detail", ldPayload().JSONLD)
	invalid := jsonAttachment(t, "detail", map[string]interface{}{"credential": credential()})

	require.NoError(t, svc.ProcessProposal(ctx, rec, valid))
	require.NoError(t, svc.ProcessOffer(ctx, rec, valid))
	require.NoError(t, svc.ProcessRequest(ctx, rec, valid))

	requireProblem(t, svc.ProcessProposal(ctx, rec, invalid), issuecredential.ProblemIssuanceAbandoned)
	requireProblem(t, svc.ProcessOffer(ctx, rec, invalid), issuecredential.ProblemInvalidOffer)
	requireProblem(t, svc.ProcessRequest(ctx, rec, invalid), issuecredential.ProblemInvalidRequest)

	require.ErrorIs(t, svc.ProcessOffer(ctx, rec, nil), issuecredential.ErrMissingAttachment)

	var derr *decorator.DecodeError
	require.ErrorAs(t, svc.ProcessOffer(ctx, rec, &decorator.Attachment{ID: "empty"}), &derr)
}

func TestService_IssueAndStore(t *testing.T) {
	ctx := context.Background()
	rec := &issuecredential.Record{ID: "rec-1"}

	issue := func(t *testing.T, f *fixture) *issuecredential.FormatAttachment {
		t.Helper()

		request := jsonAttachment(t, "req-1", ldPayload().JSONLD)

		fa, err := f.svc.CreateCredential(ctx, rec, nil, nil, request)
		require.NoError(t, err)

		return fa
	}

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		fa := issue(t, f)
		require.Equal(t, issuecredential.Format{AttachID: "req-1", Format: issuecredential.LDProofVCFormat}, fa.Format)

		vc := map[string]interface{}{}
		require.NoError(t, fa.Attachment.Decode(&vc))
		require.Equal(t, proofType, vc["proof"].(map[string]interface{})["type"])

		id, err := f.svc.ProcessCredential(ctx, rec, fa.Attachment)
		require.NoError(t, err)
		require.Equal(t, id, f.store.Names[rec.ID])
		require.JSONEq(t, string(mustBytes(t, fa.Attachment)), string(f.store.Saved[id]))
	})

	t.Run("proof set", func(t *testing.T) {
		f := newFixture(t)
		vc := credential()
		vc["proof"] = []interface{}{map[string]interface{}{"type": proofType}}

		_, err := f.svc.ProcessCredential(ctx, rec, jsonAttachment(t, "cred", vc))
		require.NoError(t, err)
	})

	t.Run("missing request", func(t *testing.T) {
		_, err := newFixture(t).svc.CreateCredential(ctx, rec, nil, nil, nil)
		requireProblem(t, err, issuecredential.ProblemIssuanceAbandoned)
	})

	t.Run("invalid request", func(t *testing.T) {
		_, err := newFixture(t).svc.CreateCredential(ctx, rec, nil, nil, jsonAttachment(t, "r", map[string]int{"a": 1}))
		requireProblem(t, err, issuecredential.ProblemInvalidRequest)
	})

	t.Run("no signer", func(t *testing.T) {
		svc, err := jsonld.New(&mockld.MockProvider{})
		require.NoError(t, err)

		_, err = svc.CreateCredential(ctx, rec, nil, nil, jsonAttachment(t, "req-1", ldPayload().JSONLD))
		require.ErrorIs(t, err, jsonld.ErrMissingSigner)
	})

	t.Run("sign error", func(t *testing.T) {
		f := newFixture(t)
		f.signer.ErrSign = errors.New("kms down")

		_, err := f.svc.CreateCredential(ctx, rec, nil, nil, jsonAttachment(t, "req-1", ldPayload().JSONLD))
		require.ErrorContains(t, err, "kms down")
	})

	t.Run("credential without proof", func(t *testing.T) {
		_, err := newFixture(t).svc.ProcessCredential(ctx, rec, jsonAttachment(t, "cred", credential()))
		requireProblem(t, err, issuecredential.ProblemInvalidCredential)
	})

	t.Run("malformed credential", func(t *testing.T) {
		vc := map[string]interface{}{"proof": map[string]interface{}{"type": proofType}}

		_, err := newFixture(t).svc.ProcessCredential(ctx, rec, jsonAttachment(t, "cred", vc))
		requireProblem(t, err, issuecredential.ProblemInvalidCredential)
	})

	t.Run("no store", func(t *testing.T) {
		f := newFixture(t)
		fa := issue(t, f)

		svc, err := jsonld.New(&mockld.MockProvider{})
		require.NoError(t, err)

		_, err = svc.ProcessCredential(ctx, rec, fa.Attachment)
		requireProblem(t, err, issuecredential.ProblemIssuanceAbandoned)
		require.ErrorIs(t, err, jsonld.ErrMissingCredentialStore)
	})

	t.Run("save error", func(t *testing.T) {
		f := newFixture(t)
		fa := issue(t, f)
		f.store.ErrSave = errors.New("disk full")

		_, err := f.svc.ProcessCredential(ctx, rec, fa.Attachment)
		require.ErrorContains(t, err, "disk full")
	})
}

func mustBytes(t *testing.T, att *decorator.Attachment) []byte {
	t.Helper()

	raw, err := att.Bytes()
	require.NoError(t, err)

	return raw
}

func TestService_ShouldAutoRespond(t *testing.T) {
	f := newFixture(t)
	rec := &issuecredential.Record{ID: "rec-1"}

	detail := jsonAttachment(t, "a", ldPayload().JSONLD)

	reordered := credential()
	reordered["credentialSubject"] = map[string]interface{}{
		"degree": map[string]interface{}{"name": "Bachelor of Science and Arts", "type": "BachelorDegree"},
		"id":     "did:example:holder",
	}
	same := jsonAttachment(t, "b", &issuecredential.JSONLDCredentialFormat{
		Credential: reordered,
		Options:    &issuecredential.LDProofOptions{ProofPurpose: "assertionMethod", ProofType: proofType},
	})

	other := ldPayload()
	other.JSONLD.Credential["issuer"] = "did:example:other"
	changed := jsonAttachment(t, "c", other.JSONLD)

	t.Run("proposal and offer", func(t *testing.T) {
		require.True(t, f.svc.ShouldAutoRespondToProposal(&issuecredential.AutoRespondInput{
			Record: rec, Proposal: detail, Offer: same,
		}))
		require.False(t, f.svc.ShouldAutoRespondToProposal(&issuecredential.AutoRespondInput{
			Record: rec, Proposal: detail, Offer: changed,
		}))
		require.False(t, f.svc.ShouldAutoRespondToProposal(&issuecredential.AutoRespondInput{Record: rec, Proposal: detail}))
		require.True(t, f.svc.ShouldAutoRespondToOffer(&issuecredential.AutoRespondInput{
			Record: rec, Proposal: detail, Offer: same,
		}))
		require.False(t, f.svc.ShouldAutoRespondToOffer(&issuecredential.AutoRespondInput{Record: rec, Offer: same}))
	})

	t.Run("request", func(t *testing.T) {
		require.True(t, f.svc.ShouldAutoRespondToRequest(&issuecredential.AutoRespondInput{
			Record: rec, Offer: detail, Request: same,
		}))
		require.True(t, f.svc.ShouldAutoRespondToRequest(&issuecredential.AutoRespondInput{
			Record: rec, Proposal: detail, Request: same,
		}))
		require.False(t, f.svc.ShouldAutoRespondToRequest(&issuecredential.AutoRespondInput{
			Record: rec, Proposal: detail, Offer: changed, Request: same,
		}))
		require.False(t, f.svc.ShouldAutoRespondToRequest(&issuecredential.AutoRespondInput{Record: rec, Request: same}))
	})

	t.Run("credential", func(t *testing.T) {
		issued, err := f.svc.CreateCredential(context.Background(), rec, nil, nil, detail)
		require.NoError(t, err)

		require.True(t, f.svc.ShouldAutoRespondToCredential(&issuecredential.AutoRespondInput{
			Record: rec, Request: same, Credential: issued.Attachment,
		}))
		require.False(t, f.svc.ShouldAutoRespondToCredential(&issuecredential.AutoRespondInput{
			Record: rec, Request: changed, Credential: issued.Attachment,
		}))
		require.False(t, f.svc.ShouldAutoRespondToCredential(&issuecredential.AutoRespondInput{
			Record: rec, Credential: issued.Attachment,
		}))

		bbs := ldPayload()
		bbs.JSONLD.Options.ProofType = "BbsBlsSignature2020"
		require.False(t, f.svc.ShouldAutoRespondToCredential(&issuecredential.AutoRespondInput{
			Record: rec, Request: jsonAttachment(t, "d", bbs.JSONLD), Credential: issued.Attachment,
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

func TestJSONLDExchange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	holder, err := issuecredential.NewV2(&protocolProvider{
		store: mem.NewProvider(), formats: []issuecredential.FormatService{f.svc},
	})
	require.NoError(t, err)

	issuer, err := issuecredential.NewV2(&protocolProvider{
		store: mem.NewProvider(), formats: []issuecredential.FormatService{f.svc},
	}, issuecredential.WithAutoAccept(issuecredential.AutoAcceptContentApproved))
	require.NoError(t, err)

	_, proposal, err := holder.CreateProposal(ctx, &issuecredential.CreateProposalOptions{
		ConnectionID: "conn-1", CredentialFormats: *ldPayload(),
	})
	require.NoError(t, err)

	iRec, err := issuer.ProcessProposal(ctx, proposal, "conn-2")
	require.NoError(t, err)

	iRec, offer, err := issuer.AcceptProposal(ctx, iRec.ID, nil)
	require.NoError(t, err)

	hRec, err := holder.ProcessOffer(ctx, offer, "conn-1")
	require.NoError(t, err)

	ok, err := holder.ShouldAutoRespondToOffer(hRec)
	require.NoError(t, err)
	require.False(t, ok)

	hRec, request, err := holder.AcceptOffer(ctx, hRec.ID, nil)
	require.NoError(t, err)

	iRec, err = issuer.ProcessRequest(ctx, request, "conn-2")
	require.NoError(t, err)

	ok, err = issuer.ShouldAutoRespondToRequest(iRec)
	require.NoError(t, err)
	require.True(t, ok)

	_, issued, err := issuer.AcceptRequest(ctx, iRec.ID, nil)
	require.NoError(t, err)

	hRec, err = holder.ProcessCredential(ctx, issued, "conn-1")
	require.NoError(t, err)
	require.Equal(t, issuecredential.StateCredentialReceived, hRec.State)

	id, ok := hRec.Binding(issuecredential.FormatJSONLD)
	require.True(t, ok)
	require.Contains(t, f.store.Saved, id)
	require.Equal(t, id, f.store.Names[hRec.ID])
}
