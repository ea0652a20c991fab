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
	"fmt"
	"net/http"
)

// Kind classifies a service failure for the presentation layer.
type Kind int

const (
	Internal Kind = iota
	BadRequest
	NotFound
	Conflict
	Forbidden
	Unprocessable
)

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "bad_request"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Forbidden:
		return "forbidden"
	case Unprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

// Status returns the HTTP status conventionally used to render the kind.
func (k Kind) Status() int {
	switch k {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ServiceException is a business-rule failure raised by services and hooks.
type ServiceException struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ServiceException) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ServiceException) Unwrap() error { return e.Err }

// New returns a ServiceException of the given kind.
func New(kind Kind, message string) *ServiceException {
	return &ServiceException{Kind: kind, Message: message}
}

// Wrap returns a ServiceException of the given kind carrying cause.
func Wrap(kind Kind, message string, cause error) *ServiceException {
	return &ServiceException{Kind: kind, Message: message, Err: cause}
}

func BadRequestf(format string, args ...any) *ServiceException {
	return New(BadRequest, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *ServiceException {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) *ServiceException {
	return New(Conflict, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...any) *ServiceException {
	return New(Forbidden, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first ServiceException or ValidationError in
// err's chain, or Internal.
func KindOf(err error) Kind {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Kind()
	}
	var sErr *ServiceException
	if errors.As(err, &sErr) {
		return sErr.Kind
	}
	return Internal
}
