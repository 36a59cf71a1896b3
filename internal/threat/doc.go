// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package threat scores users against device, behavior, network and account
heuristics and matches the resulting factors against a catalog of known
fraud patterns.

AnalyzeUser results are cached per user for the configured TTL. A cache
miss, including one caused by eviction, simply recomputes. Callers that
change a user's state should call Invalidate.

MonitorRealTime scores single events in isolation, using sliding windows
for burst detection:

	res, err := analyzer.MonitorRealTime(ctx, userID, threat.Event{
		Type:      "point_claim",
		IPAddress: ip,
		UserAgent: ua,
	})
	if err == nil && res.ShouldBlock {
		// stop the action
	}
*/
package threat
