package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoints(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    []Point
		wantErr bool
	}{
		{name: "separate args", fields: []string{"1,2", "3.5,-4"}, want: []Point{{X: 1, Y: 2}, {X: 3.5, Y: -4}}},
		{name: "one field", fields: []string{"0,0 10,10  20,0"}, want: []Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 0}}},
		{name: "empty", fields: nil, wantErr: true},
		{name: "blank", fields: []string{"  "}, wantErr: true},
		{name: "missing comma", fields: []string{"12"}, wantErr: true},
		{name: "bad number", fields: []string{"1,y"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePoints(tt.fields...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
