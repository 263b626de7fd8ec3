package storage

import (
	"testing"
	"time"

	"github.com/poiesic/shigen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"service name ID", core.IDFromServiceName("Food Bank")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			got, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, got)
		})
	}
}

func TestMarshalUnmarshalResource(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("fully populated", func(t *testing.T) {
		r := &core.Resource{
			Id:                 core.IDFromServiceName("生活困窮者自立支援"),
			ServiceName:        "生活困窮者自立支援",
			Category:           "相談支援",
			TargetUsers:        "生活に困窮する方",
			Description:        "家計と就労の相談",
			Eligibility:        "市内在住",
			ApplicationProcess: "窓口で相談",
			Cost:               "無料",
			Provider:           "南陽市社会福祉協議会",
			Location:           "南陽市",
			Contact:            core.Contact{Phone: "0238-40-0000", Email: "a@example.org"},
			Keywords:           []string{"家計", "自立"},
			Vector:             []float32{0.25, -0.5, 1},
			InsertedAt:         now,
			UpdatedAt:          now.Add(time.Minute),
		}

		got, err := UnmarshalResource(MarshalResource(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	})

	t.Run("minimal resource keeps nil slices and zero times", func(t *testing.T) {
		r := &core.Resource{Id: 7, ServiceName: "x"}

		got, err := UnmarshalResource(MarshalResource(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
		assert.Nil(t, got.Keywords)
		assert.True(t, got.InsertedAt.IsZero())
	})

	t.Run("truncated data", func(t *testing.T) {
		data := MarshalResource(&core.Resource{ServiceName: "truncated", Keywords: []string{"a", "b"}})
		_, err := UnmarshalResource(data[:len(data)/2])
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := UnmarshalResource(nil)
		assert.Error(t, err)
	})
}
