// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package security

import (
	"math"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

const (
	torScore         = 0.8
	proxyScore       = 0.6
	vpnScore         = 0.5
	travelScore      = 0.7
	minTravelNoiseKm = 50
)

// analyzeNetwork checks the address against the anonymizer lists and the
// claimed location against the user's last known one.
func (e *Engine) analyzeNetwork(req Request, ip string) *NetworkResult {
	res := &NetworkResult{IPAddress: ip, LocationConsistent: true}

	if c := e.classifier(); c != nil && ip != "" {
		cls := c.Classify(ip)
		res.IsVPN = cls.IsVPN
		res.IsTor = cls.IsTor
		res.IsProxy = cls.IsProxy
		res.Providers = cls.Providers
	}

	if prev, cur := req.User.LastLocation, req.Location; prev != nil && cur != nil {
		res.DistanceKm = haversineDistance(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
		hours := cur.ObservedAt.Sub(prev.ObservedAt).Hours()
		switch {
		case res.DistanceKm <= minTravelNoiseKm:
		case hours <= 0:
			res.LocationConsistent = false
		default:
			res.ImpliedSpeedKmh = res.DistanceKm / hours
			res.LocationConsistent = res.ImpliedSpeedKmh <= e.cfg.ImpossibleTravelKmh
		}
	}

	score := 0.0
	if res.IsTor {
		score += torScore
	}
	if res.IsProxy {
		score += proxyScore
	}
	if res.IsVPN {
		score += vpnScore
	}
	if !res.LocationConsistent {
		score += travelScore
	}
	res.Score = models.Clamp01(score)
	return res
}

// haversineDistance returns the great-circle distance in kilometers.
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
