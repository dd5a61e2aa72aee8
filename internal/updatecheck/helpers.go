// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package updatecheck

import (
	"errors"
	"math/rand"
	"time"

	"github.com/chengweiv5/update-engine/internal/omaha"
	"github.com/chengweiv5/update-engine/internal/policy"
)

func asParseError(err error, target **omaha.ParseError) bool {
	return errors.As(err, target)
}

func clockOrDefault(c policy.Clock) policy.Clock {
	if c != nil {
		return c
	}
	return time.Now
}

func randOrDefault(r policy.Rand) policy.Rand {
	if r != nil {
		return r
	}
	return policy.NewRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}
