package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetfaults/internal"
	"fleetfaults/internal/formats"
)

const dmsYAML = `
domains:
  leasing:
    settings:
      fallback_category: Others
      fault_categories:
        - name: Engine
          keywords: [engine]
        - name: Others
    formats:
      dms_export:
        processor: dms
        header_row: 0
        columns:
          - {name: "WO", key: work_order, required: true}
          - {name: "Opened", key: date, type: datetime, required: true}
        validations:
          date_format: "%Y-%m-%d"
        transformations: [classify_fault_category]
`

func TestFactoryCreatesKnownFamilies(t *testing.T) {
	_, f := defaultFactory(t)
	assert.Equal(t, []string{"kardex", "tabular"}, f.Families())
	require.NoError(t, f.Check())

	p, err := f.Create("kardex")
	require.NoError(t, err)
	assert.IsType(t, &kardexProcessor{}, p)
	assert.Equal(t, "kardex", p.Spec().Key())

	p, err = f.Create("workshop_log")
	require.NoError(t, err)
	assert.IsType(t, &tabularProcessor{}, p)
}

func TestFactoryUnregisteredProcessor(t *testing.T) {
	reg, err := formats.Parse([]byte(dmsYAML), formats.WithLogger(quiet))
	require.NoError(t, err)
	f := NewFactory(reg, WithProcessorLogger(quiet))

	_, err = f.Create("dms_export")
	var unreg *internal.UnregisteredProcessorError
	require.ErrorAs(t, err, &unreg)
	assert.Equal(t, "dms_export", unreg.FormatKey)
	assert.Equal(t, "dms", unreg.Family)

	err = f.Check()
	require.ErrorAs(t, err, &unreg)
	assert.Equal(t, "dms", unreg.Family)
}

func TestFactoryUnknownFormatKey(t *testing.T) {
	_, f := defaultFactory(t)

	_, err := f.Create("fleet_master")
	var unreg *internal.UnregisteredProcessorError
	require.ErrorAs(t, err, &unreg)
	var unknown *internal.UnknownFormatError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "fleet_master", unknown.Key)
}

func TestFactoryWithFamilies(t *testing.T) {
	reg, err := formats.Parse([]byte(dmsYAML), formats.WithLogger(quiet))
	require.NoError(t, err)

	f := NewFactory(reg, WithProcessorLogger(quiet), WithFamilies(map[string]Constructor{"dms": newTabularProcessor}))
	require.NoError(t, f.Check())
	p, err := f.Create("dms_export")
	require.NoError(t, err)
	assert.Equal(t, "dms", p.Spec().Family())
}
