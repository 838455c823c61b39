// Copyright 2025-2026 肖其顿 (XIAO QI DUN)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package otxrd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemContext(t *testing.T, opts ...FSContextOption) (*FSContext, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewFSContext(fs, "/uploads", "up1", opts...), fs
}

func TestEntryID_Deterministic(t *testing.T) {
	id := EntryID("up1", "a.archive.json")

	assert.Len(t, id, 28)
	assert.Equal(t, id, EntryID("up1", "a.archive.json"))
	assert.NotEqual(t, id, EntryID("up1", "b.archive.json"))
	assert.NotEqual(t, id, EntryID("up2", "a.archive.json"))
	assert.False(t, strings.ContainsAny(id, "+/"))
}

func TestReference_Format(t *testing.T) {
	assert.Equal(t, "../uploads/up1/archive/abc#/data", Reference("up1", "abc"))
}

func TestCreateArchive_CreateIfAbsent(t *testing.T) {
	var updated []string
	ctx, fs := newMemContext(t, WithUpdateHandler(func(name string) error {
		updated = append(updated, name)
		return nil
	}))

	ref, err := CreateArchive(NewInstrument("SN-9"), ctx, "inst.archive.json")
	require.NoError(t, err)
	assert.Equal(t, Reference("up1", EntryID("up1", "inst.archive.json")), ref)
	assert.Equal(t, []string{"inst.archive.json"}, updated)

	data, err := afero.ReadFile(fs, "/uploads/up1/raw/inst.archive.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"m_def":"otxrd.OmegaThetaXRDInstrument","instrument_name":"Freiberger Omega Theta XRD","lab_id":"SN-9"}}`, string(data))

	// 已存在时不覆盖, 也不再通知
	again, err := CreateArchive(NewInstrument("other"), ctx, "inst.archive.json")
	require.NoError(t, err)
	assert.Equal(t, ref, again)
	assert.Len(t, updated, 1)
	data2, _ := afero.ReadFile(fs, "/uploads/up1/raw/inst.archive.json")
	assert.Equal(t, data, data2)
}

func TestCreateArchive_ReadOnly(t *testing.T) {
	ctx, fs := newMemContext(t, WithReadOnly())

	ref, err := CreateArchive(NewInstrument(""), ctx, "inst.archive.json")
	require.NoError(t, err)
	assert.Empty(t, ref)
	exists, _ := afero.Exists(fs, "/uploads/up1/raw/inst.archive.json")
	assert.False(t, exists)
}

func TestCreateArchive_NilContext(t *testing.T) {
	ref, err := CreateArchive(NewInstrument(""), nil, "inst.archive.json")
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestUnmarshalArchive_DispatchByDefinition(t *testing.T) {
	data, err := MarshalArchive(&OmegaThetaXRD{Name: "S1", DataFile: "s.xrd"})
	require.NoError(t, err)

	section, err := UnmarshalArchive(data)
	require.NoError(t, err)
	entry, ok := section.(*OmegaThetaXRD)
	require.True(t, ok)
	assert.Equal(t, "S1", entry.Name)
	assert.Equal(t, "s.xrd", entry.DataFile)

	section, err = UnmarshalArchive([]byte(`{"data":{"m_def":"otxrd.RawFileOmegaThetaXRDData","measurement":"ref"}}`))
	require.NoError(t, err)
	assert.Equal(t, &RawFileOmegaThetaXRDData{Measurement: "ref"}, section)
}

func TestUnmarshalArchive_Errors(t *testing.T) {
	_, err := UnmarshalArchive([]byte(`{"data":{"m_def":"unknown"}}`))
	assert.Error(t, err)
	_, err = UnmarshalArchive([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewInstrument_Defaults(t *testing.T) {
	inst := NewInstrument("")
	assert.Equal(t, DefaultInstrumentName, inst.InstrumentName)
	assert.Equal(t, DefaultInstrumentLabID, inst.LabID)
}

func TestSampleSpecifications_Validate(t *testing.T) {
	assert.NoError(t, (&SampleSpecifications{}).Validate())
	assert.NoError(t, (&SampleSpecifications{SampleSideFacingDown: SampleSideNDown}).Validate())
	assert.Error(t, (&SampleSpecifications{SampleSideFacingDown: "oben"}).Validate())
}

func TestFSContext_RawPathEscape(t *testing.T) {
	ctx, _ := newMemContext(t)

	_, err := ctx.RawPath("../../etc/passwd")
	assert.Error(t, err)
	p, err := ctx.RawPath("sub/a.xrd")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/up1/raw/sub/a.xrd", filepath.ToSlash(p))
	assert.False(t, ctx.RawPathExists("../x"))
}
