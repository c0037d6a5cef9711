// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoCompleter is the generation failure reported when no completer was
// configured.
var ErrNoCompleter = errors.New("no completion backend configured")

// InputError rejects a question before any work is done. No result is
// produced.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid question: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Fixed answers and warnings for degraded results.
const (
	ApologyAnswer = "Xin lỗi, hiện tại tôi không thể tạo câu trả lời cho câu hỏi của bạn. Vui lòng thử lại sau hoặc tham khảo ý kiến luật sư để được tư vấn trực tiếp."
	TimeoutAnswer = "Xin lỗi, hệ thống không thể hoàn tất câu trả lời trong thời gian cho phép. Các tài liệu tìm được (nếu có) được liệt kê trong phần nguồn tham khảo."

	WarnGeneration = "Không thể tạo câu trả lời từ mô hình ngôn ngữ"
	WarnTimedOut   = "Yêu cầu đã hết thời gian xử lý (timed out); kết quả chưa đầy đủ"
	WarnCancelled  = "Yêu cầu đã bị hủy; kết quả chưa đầy đủ"
	WarnInvalid    = "Câu trả lời không đạt các tiêu chí chất lượng tối thiểu"
)

// retrievalWarning renders a retrieval failure for the warnings list.
func retrievalWarning(err error) string {
	return fmt.Sprintf("Không thể truy xuất đầy đủ tài liệu: %v", err)
}

// internalWarning reports a recovered panic in a post-synthesis step.
func internalWarning(step string) string {
	return fmt.Sprintf("Bước %s gặp lỗi nội bộ và đã bị bỏ qua", step)
}
