/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import (
	"context"
	"errors"
	"time"

	"github.com/bluele/gcache"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheSize     = 100
	defaultCacheTTL      = 10 * time.Minute
	defaultRetryInterval = 200 * time.Millisecond

	credDefKeyPrefix = "creddef:"
	schemaKeyPrefix  = "schema:"
)

// CachingLedger is a Ledger reading through to another Ledger. Lookups are cached, concurrent
// lookups of the same object share one ledger call and transient failures are retried.
// Ledger objects are immutable once published so cached entries are never refreshed before they expire.
type CachingLedger struct {
	next          Ledger
	cache         gcache.Cache
	ttl           time.Duration
	group         singleflight.Group
	maxRetries    uint64
	retryInterval time.Duration
}

// LedgerOption configures a CachingLedger.
type LedgerOption func(*CachingLedger)

// WithCache sets the number of cached objects and how long they are kept.
func WithCache(size int, ttl time.Duration) LedgerOption {
	return func(l *CachingLedger) {
		l.cache = gcache.New(size).LRU().Build()
		l.ttl = ttl
	}
}

// WithRetry sets how many times a failed lookup is retried and the wait between attempts.
func WithRetry(maxRetries uint64, interval time.Duration) LedgerOption {
	return func(l *CachingLedger) {
		l.maxRetries = maxRetries
		l.retryInterval = interval
	}
}

// NewCachingLedger wraps next.
func NewCachingLedger(next Ledger, opts ...LedgerOption) *CachingLedger {
	l := &CachingLedger{
		next:          next,
		cache:         gcache.New(defaultCacheSize).LRU().Build(),
		ttl:           defaultCacheTTL,
		retryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// GetCredentialDefinition returns the credential definition with id.
func (l *CachingLedger) GetCredentialDefinition(ctx context.Context, id string) (*CredentialDefinition, error) {
	v, err := l.get(ctx, credDefKeyPrefix+id, func(ctx context.Context) (interface{}, error) {
		return l.next.GetCredentialDefinition(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	return v.(*CredentialDefinition), nil
}

// GetSchema returns the schema with id.
func (l *CachingLedger) GetSchema(ctx context.Context, id string) (*Schema, error) {
	v, err := l.get(ctx, schemaKeyPrefix+id, func(ctx context.Context) (interface{}, error) {
		return l.next.GetSchema(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Schema), nil
}

func (l *CachingLedger) get(ctx context.Context, key string,
	fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	if v, err := l.cache.Get(key); err == nil {
		return v, nil
	}

	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		var v interface{}

		err := backoff.Retry(func() error {
			var err error

			v, err = fetch(ctx)
			if errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}

			return err
		}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(l.retryInterval), l.maxRetries), ctx))
		if err != nil {
			return nil, err
		}

		if err = l.cache.SetWithExpire(key, v, l.ttl); err != nil {
			logger.Warnf("cache %s: %v", key, err)
		}

		return v, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		logger.Debugf("ledger lookup %s shared", key)
	}

	return v, nil
}
