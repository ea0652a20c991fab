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

package database

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestToFields(t *testing.T) {
	assert.Equal(t, logrus.Fields{"table": "users", "rows": 3}, toFields([]interface{}{"table", "users", "rows", 3}))
	assert.Equal(t, logrus.Fields{"a": 1, "extra": "dangling"}, toFields([]interface{}{"a", 1, "dangling"}))
	assert.Empty(t, toFields(nil))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "DEBUG", LogLevel(42).String())
}

func TestGetLoggerDefault(t *testing.T) {
	l := GetLogger()
	assert.NotNil(t, l)
	assert.Same(t, l, GetLogger())
}
