package utils

import (
	"math/rand"
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// StringToUint converts string to uint, returns 0 if error
func StringToUint(s string) uint {
	i, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(i)
}

const shortIDChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandShortID 生成帖子/评论的短公开 ID
func RandShortID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = shortIDChars[rand.Intn(len(shortIDChars))]
	}
	return string(b)
}
