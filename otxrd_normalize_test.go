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
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newTestHost(t *testing.T) (*Host, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	opts := []Option{WithLogger(quietLogger())}
	return NewHost(fs, "/uploads", "up1", NewParser(0, opts...), opts...), fs
}

func writeRaw(t *testing.T, h *Host, name, data string) {
	t.Helper()
	require.NoError(t, h.Context().WriteRaw(name, []byte(data)))
}

func loadMeasurement(t *testing.T, h *Host, dataFile string) *OmegaThetaXRD {
	t.Helper()
	entry, err := h.LoadEntry(ArchiveFileName(dataFile))
	require.NoError(t, err)
	m, ok := entry.Data.(*OmegaThetaXRD)
	require.True(t, ok)
	return m
}

func TestHost_ProcessSingle(t *testing.T) {
	h, fs := newTestHost(t)
	writeRaw(t, h, "single.xrd", singleXML("S1_sample", map[int]string{
		paramIndexXPos: "5",
		paramIndexYPos: "7",
	}))

	raw, err := h.ProcessMainfile("single.xrd")
	require.NoError(t, err)
	assert.Equal(t, "single.xrd data file", raw.Metadata.EntryName)
	data, ok := raw.Data.(*RawFileOmegaThetaXRDData)
	require.True(t, ok)
	assert.Equal(t, Reference("up1", EntryID("up1", "single.archive.json")), data.Measurement)

	m := loadMeasurement(t, h, "single.xrd")
	assert.Equal(t, "S1", m.Name)
	assert.Equal(t, "S1", m.LabID)
	assert.Equal(t, "recipe", m.ScanRecipeName)
	assert.Equal(t, MeasurementTypeSingle, m.MeasurementType)
	require.NotNil(t, m.Datetime)
	assert.True(t, time.Date(2023, time.January, 2, 10, 0, 0, 0, time.UTC).Equal(*m.Datetime))

	require.Len(t, m.Results, 1)
	result := m.Results[0]
	assert.Equal(t, "S1_sample", result.Name)
	assert.Equal(t, 5, result.XPos)
	assert.Equal(t, 7, result.YPos)
	require.Len(t, result.ScanCurves, 2)
	assert.Equal(t, []float64{100, 200}, result.ScanCurves[0].Intensity)
	require.Len(t, result.Figures, 1)
	assert.Equal(t, FigureOmegaScans, result.Figures[0].Label)
	assert.Equal(t, []string{"single.omega_scans.svg"}, result.Figures[0].Files)

	require.Len(t, m.Figures, 1)
	assert.Equal(t, FigureTable, m.Figures[0].Label)
	exists, _ := afero.Exists(fs, "/uploads/up1/raw/single.table.svg")
	assert.True(t, exists)

	require.Len(t, m.Instruments, 1)
	assert.Equal(t, "SN-1", m.Instruments[0].LabID)
	instFile := "Freiberger_Omega_Theta_XRD_SN-1.archive.json"
	assert.Equal(t, Reference("up1", EntryID("up1", instFile)), m.Instruments[0].Reference)
	inst, err := h.LoadEntry(instFile)
	require.NoError(t, err)
	assert.Equal(t, &OmegaThetaXRDInstrument{InstrumentName: DefaultInstrumentName, LabID: "SN-1"}, inst.Data)
}

func TestHost_ProcessBatch(t *testing.T) {
	h, fs := newTestHost(t)
	writeRaw(t, h, "map.xrd", batchXML("M7_wafer",
		batchPoint{name: "P1", serial: "SN-A", x: -10, y: 0, tilt: "0.1"},
		batchPoint{name: "P2", serial: "SN-A", x: 0, y: 10, tilt: "0.3"},
		batchPoint{name: "P3", serial: "SN-B", x: 10, y: 0, tilt: "0.2"},
	))

	_, err := h.ProcessMainfile("map.xrd")
	require.NoError(t, err)

	m := loadMeasurement(t, h, "map.xrd")
	assert.Equal(t, "M7", m.Name)
	assert.Equal(t, MeasurementTypeMapping, m.MeasurementType)
	require.NotNil(t, m.Datetime)
	assert.True(t, time.Date(2024, time.December, 31, 23, 59, 58, 0, time.UTC).Equal(*m.Datetime))
	require.Len(t, m.Results, 3)
	assert.Equal(t, []int{-10, 0, 10}, []int{m.Results[0].XPos, m.Results[1].XPos, m.Results[2].XPos})
	assert.Equal(t, 0.3, m.Results[1].Tilt)
	for _, r := range m.Results {
		assert.Empty(t, r.ScanCurves)
	}

	require.Len(t, m.Instruments, 1)
	assert.Equal(t, "SN-B", m.Instruments[0].LabID)
	for _, serial := range []string{"SN-A", "SN-B"} {
		exists, _ := afero.Exists(fs, "/uploads/up1/raw/Freiberger_Omega_Theta_XRD_"+serial+".archive.json")
		assert.True(t, exists, serial)
	}

	require.Len(t, m.Figures, 5)
	for i, fig := range m.Figures {
		assert.Equal(t, GridChannels[i].Label, fig.Label)
		assert.Equal(t, i+1, fig.Index)
		require.Len(t, fig.Files, 1)
	}
	assert.Equal(t, "map.reference_offset.svg", m.Figures[4].Files[0])
}

func TestHost_ProcessUnrecognized(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fs := afero.NewMemMapFs()
	h := NewHost(fs, "/uploads", "up1", NewParser(0, WithLogger(logger)), WithLogger(logger))
	writeRaw(t, h, "odd.xrd", `<Root><Other/></Root>`)

	_, err := h.ProcessMainfile("odd.xrd")
	require.NoError(t, err)

	m := loadMeasurement(t, h, "odd.xrd")
	assert.Empty(t, m.Results)
	assert.Empty(t, m.MeasurementType)
	assert.Equal(t, "odd", m.Name)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestHost_ProcessMainfileRejectsOtherFiles(t *testing.T) {
	h, _ := newTestHost(t)

	_, err := h.ProcessMainfile("notes.txt")
	assert.True(t, errors.Is(err, ErrNotXRDFile))
}

func TestHost_ProcessMalformed(t *testing.T) {
	h, _ := newTestHost(t)
	writeRaw(t, h, "bad.xrd", `<Measurement><Info>`)

	_, err := h.ProcessMainfile("bad.xrd")
	assert.Error(t, err)
}

func TestHost_ProcessMainfileRecoversFailedRun(t *testing.T) {
	h, _ := newTestHost(t)
	writeRaw(t, h, "s.xrd", singleXML("S1", map[int]string{paramIndexXPos: "1.5"}))

	_, err := h.ProcessMainfile("s.xrd")
	require.Error(t, err)
	assert.True(t, h.Context().RawPathExists("s.archive.json"))
	_, err = h.LoadEntry("s.archive.json")
	require.Error(t, err)

	writeRaw(t, h, "s.xrd", singleXML("S1", map[int]string{paramIndexXPos: "4"}))
	_, err = h.ProcessMainfile("s.xrd")
	require.NoError(t, err)

	m := loadMeasurement(t, h, "s.xrd")
	require.Len(t, m.Results, 1)
	assert.Equal(t, 4, m.Results[0].XPos)
	assert.Equal(t, MeasurementTypeSingle, m.MeasurementType)
}

func TestHost_ProcessMissingSerialUsesDefaultInstrument(t *testing.T) {
	h, fs := newTestHost(t)
	doc := strings.Replace(singleXML("S2", nil), "<DeviceSerialNo>SN-1</DeviceSerialNo>", "", 1)
	writeRaw(t, h, "s.xrd", doc)

	_, err := h.ProcessMainfile("s.xrd")
	require.NoError(t, err)

	m := loadMeasurement(t, h, "s.xrd")
	require.Len(t, m.Instruments, 1)
	assert.Equal(t, DefaultInstrumentLabID, m.Instruments[0].LabID)
	exists, _ := afero.Exists(fs, "/uploads/up1/raw/Freiberger_Omega_Theta_XRD_"+DefaultInstrumentLabID+".archive.json")
	assert.True(t, exists)
}

func TestHost_ProcessRawFileIgnoresOtherFiles(t *testing.T) {
	h, _ := newTestHost(t)
	assert.NoError(t, h.ProcessRawFile("figure.svg"))
}

func TestNormalize_NoDataFile(t *testing.T) {
	entry := &OmegaThetaXRD{Name: "keep"}
	require.NoError(t, entry.Normalize(&EntryArchive{}))
	assert.Equal(t, "keep", entry.Name)
}

func TestNormalize_ReadOnlyContext(t *testing.T) {
	ctx, fs := newMemContext(t, WithReadOnly())
	require.NoError(t, afero.WriteFile(fs, "/uploads/up1/raw/s.xrd", []byte(singleXML("S9", nil)), 0o644))
	entry := &OmegaThetaXRD{DataFile: "s.xrd"}

	err := entry.Normalize(&EntryArchive{Context: ctx}, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Len(t, entry.Instruments, 1)
	assert.Empty(t, entry.Instruments[0].Reference)
	require.Len(t, entry.Figures, 1)
	assert.Empty(t, entry.Figures[0].Files)
}

func TestNormalize_InvalidTimeStampIsWarning(t *testing.T) {
	ctx, fs := newMemContext(t, WithReadOnly())
	doc := strings.Replace(singleXML("S9", nil), "01/02/2023 10:00:00", "yesterday", 1)
	require.NoError(t, afero.WriteFile(fs, "/uploads/up1/raw/s.xrd", []byte(doc), 0o644))
	entry := &OmegaThetaXRD{DataFile: "s.xrd"}

	require.NoError(t, entry.Normalize(&EntryArchive{Context: ctx}, WithLogger(quietLogger())))
	assert.Nil(t, entry.Datetime)
	assert.Equal(t, "S9", entry.Name)
}

func TestNormalize_InvalidParameter(t *testing.T) {
	ctx, fs := newMemContext(t, WithReadOnly())
	doc := singleXML("S9", map[int]string{paramIndexXPos: "1.5"})
	require.NoError(t, afero.WriteFile(fs, "/uploads/up1/raw/s.xrd", []byte(doc), 0o644))
	entry := &OmegaThetaXRD{DataFile: "s.xrd"}

	err := entry.Normalize(&EntryArchive{Context: ctx}, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xpos")
}

func TestNormalize_MissingDataFile(t *testing.T) {
	ctx, _ := newMemContext(t)
	entry := &OmegaThetaXRD{DataFile: "missing.xrd"}
	assert.Error(t, entry.Normalize(&EntryArchive{Context: ctx}, WithLogger(quietLogger())))
}

func TestNormalize_InvalidSampleSpecifications(t *testing.T) {
	ctx, _ := newMemContext(t)
	entry := &OmegaThetaXRD{
		DataFile:             "s.xrd",
		SampleSpecifications: &SampleSpecifications{SampleSideFacingDown: "sideways"},
	}
	assert.Error(t, entry.Normalize(&EntryArchive{Context: ctx}))
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "S1", EntryName("S1_2023_run"))
	assert.Equal(t, "plain", EntryName("plain"))
	assert.Equal(t, "", EntryName("_lead"))
}

func TestFSContext_OpenRawReadsBack(t *testing.T) {
	ctx, _ := newMemContext(t)
	require.NoError(t, ctx.WriteRaw("dir/a.txt", []byte("hello")))
	assert.True(t, ctx.RawPathExists("dir/a.txt"))

	rc, err := ctx.OpenRaw("dir/a.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFSContext_ReadOnlyRejectsWrites(t *testing.T) {
	ctx, _ := newMemContext(t, WithReadOnly())
	assert.Error(t, ctx.WriteRaw("a.txt", []byte("x")))
}
