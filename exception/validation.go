/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package exception

import (
	"errors"
	"strings"
)

// DefaultValidationMessage is the user-facing message of a failed DTO validation.
const DefaultValidationMessage = "Validation failed"

// Violation is one failed field rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationError reports that a DTO did not satisfy its declared rules.
type ValidationError struct {
	Message    string      `json:"message"`
	Violations []Violation `json:"violations"`
}

// NewValidationError returns a ValidationError with the default message.
func NewValidationError(violations ...Violation) *ValidationError {
	return &ValidationError{Message: DefaultValidationMessage, Violations: violations}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Kind() Kind { return Unprocessable }

// Fields returns the names of the fields that failed, in violation order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

// IsValidation reports whether err's chain holds a ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
