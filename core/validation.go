// Copyright 2025 Poiesic Systems
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


package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ValidateJobRecord checks a JobRecord against domain rules.
//
// Validation rules:
//   - ID must not be blank
//   - Title must not be blank
//   - Company must not be blank
//
// All violations are reported together, each wrapped in ErrMalformedRecord.
// The corpus loader recovers from every one of them with fallback values.
func ValidateJobRecord(record *JobRecord) error {
	if record == nil {
		return fmt.Errorf("%w: job record is nil", ErrMalformedRecord)
	}

	var errs []error
	if strings.TrimSpace(record.ID) == "" {
		errs = append(errs, ErrMissingID)
	}
	if strings.TrimSpace(record.Title) == "" {
		errs = append(errs, ErrMissingTitle)
	}
	if strings.TrimSpace(record.Company) == "" {
		errs = append(errs, ErrMissingEmployer)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: job %q: %w", ErrMalformedRecord, record.ID, errors.Join(errs...))
}

// ValidateCompanyRecord checks a CompanyRecord against domain rules.
//
// Validation rules:
//   - Name must not be blank
//   - Size, when present, must be a non-negative integer
//   - FoundedYear, when present, must be an integer
func ValidateCompanyRecord(record *CompanyRecord) error {
	if record == nil {
		return fmt.Errorf("%w: company record is nil", ErrMalformedRecord)
	}

	var errs []error
	if strings.TrimSpace(record.Name) == "" {
		errs = append(errs, ErrMissingName)
	}
	if _, err := ParseCount(record.Size); err != nil {
		errs = append(errs, fmt.Errorf("size: %w", err))
	}
	if _, err := ParseCount(record.FoundedYear); err != nil {
		errs = append(errs, fmt.Errorf("founded year: %w", err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: company %q: %w", ErrMalformedRecord, record.Name, errors.Join(errs...))
}

// ParseCount parses a non-negative integer field.
// Blank input yields 0 with no error. Thousands separators and a trailing "+"
// ("1,000+") are accepted.
func ParseCount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, ",", ""), "+")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return n, nil
}
