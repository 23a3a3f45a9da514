package utils

import (
	"testing"
)

func TestMakeObjectName(t *testing.T) {
	type args struct {
		ID       string
		fileName string
	}
	tests := []struct {
		name    string
		args    args
		want    string
		wantErr bool
	}{
		{name: "OK", args: args{ID: "2", fileName: "olia.webm"}, want: "2/olia.webm", wantErr: false},
		{name: "OK wav", args: args{ID: "sess-1", fileName: "aa.wav"}, want: "sess-1/aa.wav", wantErr: false},
		{name: "No session", args: args{ID: "", fileName: "olia.webm"}, want: "", wantErr: true},
		{name: "No file", args: args{ID: "2", fileName: ""}, want: "", wantErr: true},
		{name: "Fail slash", args: args{ID: "2", fileName: "../olia.webm"}, want: "", wantErr: true},
		{name: "Fail backslash", args: args{ID: "2", fileName: "a\\olia.webm"}, want: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MakeObjectName(tt.args.ID, tt.args.fileName)
			if (err != nil) != tt.wantErr {
				t.Errorf("MakeObjectName() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("MakeObjectName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSupportAudioExt(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{ext: ".webm", want: true},
		{ext: ".wav", want: true},
		{ext: ".mp3", want: true},
		{ext: ".m4a", want: true},
		{ext: ".ogg", want: false},
		{ext: ".zip", want: false},
		{ext: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := SupportAudioExt(tt.ext); got != tt.want {
				t.Errorf("SupportAudioExt() = %v, want %v", got, tt.want)
			}
		})
	}
}
