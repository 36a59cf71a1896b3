// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package database

import (
	"errors"
	"testing"
)

type fakeCloser struct {
	closed bool
	err    error
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return f.err
}

func TestCloseHelpers(t *testing.T) {
	c := &fakeCloser{err: errors.New("boom")}
	CloseWithLog(c, "test")
	if !c.closed {
		t.Error("CloseWithLog did not close")
	}

	q := &fakeCloser{}
	closeQuietly(q)
	if !q.closed {
		t.Error("closeQuietly did not close")
	}

	// nil closers are ignored
	CloseWithLog(nil, "nil")
	closeQuietly(nil)
}
