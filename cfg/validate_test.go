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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestValidate(t *testing.T) { suite.Run(t, new(ValidateTest)) }

type ValidateTest struct {
	suite.Suite
	mirror string
	mount  string
}

func (t *ValidateTest) SetupTest() {
	t.mirror = t.T().TempDir()
	t.mount = t.T().TempDir()
}

func (t *ValidateTest) base() Config {
	c := DefaultConfig()
	c.Mode = ModeSplit
	c.BlockSizeBytes = 2 << 20
	c.MirrorRoot = t.mirror
	c.MountPoint = t.mount
	return c
}

func (t *ValidateTest) TestValidConfigPasses() {
	c := t.base()
	t.NoError(c.Validate())
}

func (t *ValidateTest) TestSplitModeRequiresNonZeroBlockSize() {
	c := t.base()
	c.BlockSizeBytes = 0
	t.EqualError(c.Validate(), BlockSizeZeroError)
}

func (t *ValidateTest) TestCatModeRejectsBlockSize() {
	c := t.base()
	c.Mode = ModeCat
	t.EqualError(c.Validate(), BlockSizeIgnoredError)
}

func (t *ValidateTest) TestUnknownModeRejected() {
	c := t.base()
	c.Mode = Mode("bogus")
	t.Error(c.Validate())
}

func (t *ValidateTest) TestNonPositiveReadAheadRejected() {
	c := t.base()
	c.DirHandleReadAheadEntries = 0
	t.EqualError(c.Validate(), ReadAheadNonPositiveError)
}

func (t *ValidateTest) TestMissingMirrorRootRejected() {
	c := t.base()
	c.MirrorRoot = filepath.Join(t.mirror, "does-not-exist")
	t.EqualError(c.Validate(), MirrorRootMissingError)
}

func (t *ValidateTest) TestMirrorRootNotDirRejected() {
	f := filepath.Join(t.mirror, "a-file")
	t.Require().NoError(os.WriteFile(f, []byte("x"), 0o644))

	c := t.base()
	c.MirrorRoot = f
	t.EqualError(c.Validate(), MirrorRootNotDirError)
}

func (t *ValidateTest) TestMissingMountPointAllowedWithMkdir() {
	c := t.base()
	c.MountPoint = filepath.Join(t.mount, "new-mount")
	c.MkdirMnt = true
	t.NoError(c.Validate())
}

func (t *ValidateTest) TestMissingMountPointRejectedWithoutMkdir() {
	c := t.base()
	c.MountPoint = filepath.Join(t.mount, "new-mount")
	t.EqualError(c.Validate(), MountPointMissingError)
}

func (t *ValidateTest) TestNonEmptyMountPointRejected() {
	t.Require().NoError(os.WriteFile(filepath.Join(t.mount, "stray"), []byte("x"), 0o644))

	c := t.base()
	t.EqualError(c.Validate(), MountPointNotEmptyError)
}
