/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// fakeFormat is a format service writing a small JSON document per phase.
type fakeFormat struct {
	typ     FormatType
	match   string
	formats map[Phase]string
	vote    bool

	mu    sync.Mutex
	errs  map[string]error
	calls []string
}

func newFakeIndy() *fakeFormat {
	return &fakeFormat{
		typ:   FormatIndy,
		match: "hlindy",
		formats: map[Phase]string{
			PhaseProposal: IndyProposeFormat, PhaseOffer: IndyOfferFormat,
			PhaseRequest: IndyRequestFormat, PhaseCredential: IndyIssueFormat,
		},
		vote: true,
		errs: map[string]error{},
	}
}

func newFakeLD() *fakeFormat {
	return &fakeFormat{
		typ:   FormatJSONLD,
		match: "aries/ld-proof-vc",
		formats: map[Phase]string{
			PhaseProposal: LDProofVCDetailFormat, PhaseOffer: LDProofVCDetailFormat,
			PhaseRequest: LDProofVCDetailFormat, PhaseCredential: LDProofVCFormat,
		},
		vote: true,
		errs: map[string]error{},
	}
}

func (f *fakeFormat) failOn(op string, err error) {
	f.mu.Lock()
	f.errs[op] = err
	f.mu.Unlock()
}

func (f *fakeFormat) call(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, op)

	return f.errs[op]
}

func (f *fakeFormat) called(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, c := range f.calls {
		if c == op {
			n++
		}
	}

	return n
}

func (f *fakeFormat) Type() FormatType {
	return f.typ
}

func (f *fakeFormat) Supports(format string) bool {
	return strings.Contains(format, f.match)
}

func (f *fakeFormat) HasPayload(formats *CredentialFormats) bool {
	if formats == nil {
		return false
	}

	if f.typ == FormatIndy {
		return formats.Indy != nil
	}

	return formats.JSONLD != nil
}

func (f *fakeFormat) attachment(phase Phase, formats *CredentialFormats) (*FormatAttachment, error) {
	content := map[string]interface{}{"phase": string(phase)}
	if phase == PhaseProposal && f.typ == FormatIndy {
		content = map[string]interface{}{"cred_def_id": "cred-def-1"}
	}

	id := fmt.Sprintf("%s-%s", f.typ, phase)

	att, err := decorator.NewJSONAttachment(id, content)
	if err != nil {
		return nil, err
	}

	fa := &FormatAttachment{Format: Format{AttachID: id, Format: f.formats[phase]}, Attachment: att}

	if f.typ == FormatIndy && formats != nil && formats.Indy != nil && len(formats.Indy.Attributes) > 0 {
		fa.Preview = &CredentialPreview{Attributes: formats.Indy.Attributes}
	}

	return fa, nil
}

func (f *fakeFormat) process(op string, att *decorator.Attachment) error {
	if err := f.call(op); err != nil {
		return err
	}

	if att == nil {
		return fmt.Errorf("%s: no attachment", op)
	}

	v := map[string]interface{}{}

	return att.Decode(&v)
}

func (f *fakeFormat) CreateProposal(_ context.Context, _ *Record, formats *CredentialFormats) (*FormatAttachment, error) {
	if err := f.call("CreateProposal"); err != nil {
		return nil, err
	}

	return f.attachment(PhaseProposal, formats)
}

func (f *fakeFormat) ProcessProposal(_ context.Context, _ *Record, att *decorator.Attachment) error {
	return f.process("ProcessProposal", att)
}

func (f *fakeFormat) CreateOffer(_ context.Context, _ *Record, formats *CredentialFormats,
	_ *decorator.Attachment) (*FormatAttachment, error) {
	if err := f.call("CreateOffer"); err != nil {
		return nil, err
	}

	return f.attachment(PhaseOffer, formats)
}

func (f *fakeFormat) ProcessOffer(_ context.Context, _ *Record, att *decorator.Attachment) error {
	return f.process("ProcessOffer", att)
}

func (f *fakeFormat) CreateRequest(_ context.Context, _ *Record, _ *CredentialFormats,
	offer *decorator.Attachment) (*FormatAttachment, error) {
	if err := f.call("CreateRequest"); err != nil {
		return nil, err
	}

	if offer == nil {
		return nil, ErrMissingOffer
	}

	return f.attachment(PhaseRequest, nil)
}

func (f *fakeFormat) ProcessRequest(_ context.Context, _ *Record, att *decorator.Attachment) error {
	return f.process("ProcessRequest", att)
}

func (f *fakeFormat) CreateCredential(_ context.Context, _ *Record, _ *CredentialFormats,
	_, request *decorator.Attachment) (*FormatAttachment, error) {
	if err := f.call("CreateCredential"); err != nil {
		return nil, err
	}

	if request == nil {
		return nil, fmt.Errorf("no request")
	}

	return f.attachment(PhaseCredential, nil)
}

func (f *fakeFormat) ProcessCredential(_ context.Context, _ *Record, att *decorator.Attachment) (string, error) {
	if err := f.process("ProcessCredential", att); err != nil {
		return "", err
	}

	return "cred-" + string(f.typ), nil
}

func (f *fakeFormat) ShouldAutoRespondToProposal(in *AutoRespondInput) bool {
	return f.vote && in.Proposal != nil
}

func (f *fakeFormat) ShouldAutoRespondToOffer(in *AutoRespondInput) bool {
	return f.vote && in.Offer != nil
}

func (f *fakeFormat) ShouldAutoRespondToRequest(in *AutoRespondInput) bool {
	return f.vote && in.Request != nil
}

func (f *fakeFormat) ShouldAutoRespondToCredential(in *AutoRespondInput) bool {
	return f.vote && in.Credential != nil
}

type testProvider struct {
	store   storage.Provider
	lookup  service.ConnectionLookup
	formats []FormatService
}

func newTestProvider(formats ...FormatService) *testProvider {
	return &testProvider{store: mem.NewProvider(), formats: formats}
}

func (p *testProvider) StorageProvider() storage.Provider {
	return p.store
}

func (p *testProvider) ConnectionLookup() service.ConnectionLookup {
	return p.lookup
}

func (p *testProvider) FormatServices() []FormatService {
	return p.formats
}
