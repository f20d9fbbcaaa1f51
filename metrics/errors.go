// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"errors"
	"fmt"
)

var (
	// ErrInputValidation is wrapped by every error that rejects the input as a whole
	ErrInputValidation = errors.New("invalid input")

	ErrInsufficientData = fmt.Errorf("%w: at least 2 observations are required", ErrInputValidation)
	ErrInvalidPrice     = fmt.Errorf("%w: prices must be positive numbers", ErrInputValidation)
	ErrUnsortedDates    = fmt.Errorf("%w: dates must be strictly increasing", ErrInputValidation)
	ErrSeriesMismatch   = fmt.Errorf("%w: return series does not match price series", ErrInputValidation)
	ErrInvalidParams    = fmt.Errorf("%w: invalid parameters", ErrInputValidation)
)

var (
	// ErrUndefinedMetric marks a single metric that could not be computed. It is
	// recorded in Report.Undefined and never returned from Compute.
	ErrUndefinedMetric = errors.New("metric undefined")
)
