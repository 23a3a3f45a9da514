package utils

import (
	"fmt"
	"strings"
)

//SupportAudioExt checks if audio ext is supported
func SupportAudioExt(ext string) bool {
	return ext == ".webm" || ext == ".wav" || ext == ".mp3" || ext == ".m4a"
}

// MakeObjectName builds the storage object name for a session clip
func MakeObjectName(sessionID, fileName string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("no session ID")
	}
	if fileName == "" || strings.ContainsAny(fileName, "/\\") {
		return "", fmt.Errorf("wrong file name '%s'", fileName)
	}
	return sessionID + "/" + fileName, nil
}
