package emotion

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
)

func TestDetectEmotionRequestDecoding(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLen int
		wantErr bool
	}{
		{name: "numbers", body: `{"landmarks":[0.1,2,3e-1]}`, wantLen: 3},
		{name: "missing", body: `{}`, wantLen: 0},
		{name: "null array", body: `{"landmarks":null}`, wantLen: 0},
		{name: "null entry", body: `{"landmarks":[0.1,null]}`, wantErr: true},
		{name: "string entry", body: `{"landmarks":[0.1,"x"]}`, wantErr: true},
		{name: "nested", body: `{"landmarks":[[0.1,0.2]]}`, wantErr: true},
		{name: "object", body: `{"landmarks":{"x":1}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req DetectEmotionRequest
			err := jsoniter.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(req.Landmarks) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(req.Landmarks), tt.wantLen)
			}
		})
	}
}
