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

package validation

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/tomoncle/anvil/exception"
)

// Instantiate builds a D from raw input. Accepted inputs are D, *D, JSON
// ([]byte, json.RawMessage, string) and anything mapstructure can decode,
// typically map[string]any. Unknown keys are ignored and missing keys stay
// zero. Shape errors are reported as a *exception.ValidationError.
func Instantiate[D any](raw any) (*D, error) {
	var dto D
	switch v := raw.(type) {
	case nil:
		return nil, exception.NewValidationError(exception.Violation{
			Rule:    "type",
			Message: "input is required",
		})
	case D:
		dto = v
	case *D:
		if v == nil {
			return Instantiate[D](nil)
		}
		dto = *v
	case json.RawMessage:
		return unmarshalJSON[D](v)
	case []byte:
		return unmarshalJSON[D](v)
	case string:
		return unmarshalJSON[D]([]byte(v))
	default:
		if err := decode(raw, &dto); err != nil {
			return nil, exception.NewValidationError(exception.Violation{
				Rule:    "type",
				Message: err.Error(),
			})
		}
	}
	return &dto, nil
}

// Struct instantiates a D from raw input and validates it.
func Struct[D any](raw any) (*D, error) {
	dto, err := Instantiate[D](raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(dto); err != nil {
		return nil, err
	}
	return dto, nil
}

func decode(input any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Squash:  true,
		Result:  output,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func unmarshalJSON[D any](data []byte) (*D, error) {
	var dto D
	if err := json.Unmarshal(data, &dto); err != nil {
		violation := exception.Violation{Rule: "type", Message: err.Error()}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			violation.Field = typeErr.Field
			violation.Message = typeErr.Field + " must be of type " + typeErr.Type.String()
		}
		return nil, exception.NewValidationError(violation)
	}
	return &dto, nil
}
