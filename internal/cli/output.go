package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Response JSON 输出结构
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// writeResult 按输出格式打印结果，text 模式使用 textLine
func writeResult(w io.Writer, format string, data interface{}, textLine string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(w, textLine)
	return err
}
