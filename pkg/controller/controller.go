/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"fmt"

	"github.com/hyperledger/aries-credentials-go/pkg/controller/command"
	issuecredentialcmd "github.com/hyperledger/aries-credentials-go/pkg/controller/command/issuecredential"
	verifiablecmd "github.com/hyperledger/aries-credentials-go/pkg/controller/command/verifiable"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/rest"
	issuecredentialrest "github.com/hyperledger/aries-credentials-go/pkg/controller/rest/issuecredential"
	verifiablerest "github.com/hyperledger/aries-credentials-go/pkg/controller/rest/verifiable"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/webnotifier"
	protocol "github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/framework/context"
)

type allOpts struct {
	webhookURLs []string
	autoAccept  protocol.AutoAccept
	notifier    command.Notifier
}

const wsPath = "/ws"

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithWebhookURLs is an option for setting up a webhook dispatcher which will notify clients of events.
func WithWebhookURLs(webhookURLs ...string) Opt {
	return func(opts *allOpts) {
		opts.webhookURLs = webhookURLs
	}
}

// WithNotifier is an option for setting up a notifier which will notify clients of events.
func WithNotifier(notifier command.Notifier) Opt {
	return func(opts *allOpts) {
		opts.notifier = notifier
	}
}

// WithAutoAccept is an option setting the default auto accept policy of the credential exchanges.
func WithAutoAccept(autoAccept protocol.AutoAccept) Opt {
	return func(opts *allOpts) {
		opts.autoAccept = autoAccept
	}
}

func applyOpts(opts []Opt) *allOpts {
	o := &allOpts{}
	// Apply options
	for _, opt := range opts {
		opt(o)
	}

	if o.notifier == nil {
		o.notifier = webnotifier.New(wsPath, o.webhookURLs)
	}

	return o
}

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(ctx *context.Provider, opts ...Opt) ([]rest.Handler, error) {
	restAPIOpts := applyOpts(opts)

	// issue credential REST operation
	issuecredentialOp, err := issuecredentialrest.New(ctx, restAPIOpts.notifier,
		protocol.WithAutoAccept(restAPIOpts.autoAccept))
	if err != nil {
		return nil, fmt.Errorf("create issue-credential rest command : %w", err)
	}

	// verifiable command operation
	verifiableOp, err := verifiablerest.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create verifiable rest command : %w", err)
	}

	// creat handlers from all operations
	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, issuecredentialOp.GetRESTHandlers()...)
	allHandlers = append(allHandlers, verifiableOp.GetRESTHandlers()...)

	nhp, ok := restAPIOpts.notifier.(handlerProvider)
	if ok {
		allHandlers = append(allHandlers, nhp.GetRESTHandlers()...)
	}

	return allHandlers, nil
}

type handlerProvider interface {
	GetRESTHandlers() []rest.Handler
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(ctx *context.Provider, opts ...Opt) ([]command.Handler, error) {
	cmdOpts := applyOpts(opts)

	// issue credential command operation
	issuecredential, err := issuecredentialcmd.New(ctx, cmdOpts.notifier, protocol.WithAutoAccept(cmdOpts.autoAccept))
	if err != nil {
		return nil, fmt.Errorf("create issue-credential command : %w", err)
	}

	// verifiable command operation
	verifiable, err := verifiablecmd.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create verifiable command : %w", err)
	}

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, issuecredential.GetHandlers()...)
	allHandlers = append(allHandlers, verifiable.GetHandlers()...)

	return allHandlers, nil
}
