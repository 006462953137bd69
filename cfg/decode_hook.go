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
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// hookFunc converts the two string-flavored flags Config needs special
// parsing for: --blocksize's K/M/G/T suffix notation into BlockSizeBytes,
// and --file-perms/--dir-perms's octal notation into os.FileMode. Every
// other field decodes through mapstructure's defaults.
func hookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)

		switch t {
		case reflect.TypeOf(uint64(0)):
			return ParseBlockSize(s)
		case reflect.TypeOf(os.FileMode(0)):
			n, err := strconv.ParseUint(s, 8, 32)
			if err != nil {
				return nil, err
			}
			return os.FileMode(n), nil
		default:
			return data, nil
		}
	}
}

// DecodeHook is passed to viper.Unmarshal the way gcsfuse's cmd package
// passes cfg.DecodeHook(): compose the field-specific conversions above with
// mapstructure's standard duration and slice hooks.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		hookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
