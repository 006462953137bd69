// Copyright 2024 Google Inc. All Rights Reserved.
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

package cfg

import (
	"os"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, input map[string]interface{}, out interface{}) {
	t.Helper()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     out,
	})
	require.NoError(t, err)
	require.NoError(t, decoder.Decode(input))
}

func TestDecodeHookBlockSize(t *testing.T) {
	var got struct {
		BlockSize uint64
	}
	decode(t, map[string]interface{}{"blocksize": "4M"}, &got)
	require.EqualValues(t, 4<<20, got.BlockSize)
}

func TestDecodeHookFileMode(t *testing.T) {
	var got struct {
		Perm os.FileMode
	}
	decode(t, map[string]interface{}{"perm": "0755"}, &got)
	require.Equal(t, os.FileMode(0o755), got.Perm)
}

func TestDecodeHookInvalidFileModeErrors(t *testing.T) {
	var got struct {
		Perm os.FileMode
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &got,
	})
	require.NoError(t, err)
	require.Error(t, decoder.Decode(map[string]interface{}{"perm": "not-octal"}))
}

func TestDecodeHookDuration(t *testing.T) {
	var got struct {
		Timeout time.Duration
	}
	decode(t, map[string]interface{}{"timeout": "30s"}, &got)
	require.Equal(t, 30*time.Second, got.Timeout)
}

func TestDecodeHookSlice(t *testing.T) {
	var got struct {
		Options []string
	}
	decode(t, map[string]interface{}{"options": "ro,noatime"}, &got)
	require.Equal(t, []string{"ro", "noatime"}, got.Options)
}

func TestDecodeHookNonStringFieldUntouched(t *testing.T) {
	var got struct {
		Count int
	}
	decode(t, map[string]interface{}{"count": 5}, &got)
	require.Equal(t, 5, got.Count)
}
