// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

/*
Package models defines the data structures shared by the fraud-detection packages.

Key Components:

  - User: account record consumed from the user store
  - RiskFactor: one immutable piece of evidence (type, severity, score)
  - ThreatLevel and RecommendedAction: the decision ladder vocabulary
  - Error taxonomy: DeviceBannedError, StoreUnavailableError, ValidationError
  - APIResponse: HTTP envelope

Risk factors are value types. Packages append them to slices and never mutate
an existing factor; NewRiskFactor clamps the score into [0,1] and stamps the
detection time.
*/
package models
