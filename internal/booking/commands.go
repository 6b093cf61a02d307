package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

const (
	CmdCourses    = "查看課程"
	CmdSchedule   = "查看時間表"
	CmdMyBookings = "我的預約"
	CmdQuickBook  = "立即預約"
	bookPrefix    = "預約"
)

// Handle answers one LINE text message from userID.
func (s *Service) Handle(ctx context.Context, userID, text string) string {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch {
	case text == CmdCourses || lower == "courses":
		return s.coursesText(ctx)
	case text == CmdSchedule || lower == "schedule":
		return ScheduleText()
	case text == CmdMyBookings || lower == "my bookings":
		return s.myBookingsText(ctx, userID)
	case text == CmdQuickBook:
		return QuickBookText()
	case strings.HasPrefix(text, bookPrefix):
		return s.bookText(ctx, userID, strings.TrimPrefix(text, bookPrefix))
	case strings.HasPrefix(lower, "book "):
		return s.bookText(ctx, userID, text[len("book "):])
	default:
		return WelcomeText()
	}
}

func (s *Service) coursesText(ctx context.Context) string {
	left, err := s.Remaining(ctx)
	if err != nil {
		log.Printf("Booking: failed to count seats: %v", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🧘 %s課程\n", StudioName)
	for _, c := range Courses {
		fmt.Fprintf(&b, "\n%s. %s\n   時間：%d 分鐘 | 價格：$%d", c.ID, c.Name, c.Duration, c.Price)
		if left != nil {
			fmt.Fprintf(&b, " | 剩餘：%d/%d", left[c.ID], c.Capacity)
		}
	}
	b.WriteString("\n\n輸入「預約 課程名稱」即可預約")
	return b.String()
}

func ScheduleText() string {
	lines := make([]string, 0, len(Schedule))
	for _, sl := range Schedule {
		c, _ := FindCourse(sl.CourseID)
		lines = append(lines, fmt.Sprintf("%s %s - %s\n教練：%s", sl.Day, sl.Time, c.Name, sl.Instructor))
	}
	return fmt.Sprintf("📅 %s周課程時間表\n\n%s", StudioName, strings.Join(lines, "\n\n"))
}

func QuickBookText() string {
	var b strings.Builder
	b.WriteString("選擇要預約的課程：")
	for _, c := range Courses {
		fmt.Fprintf(&b, "\n預約 %s", c.Name)
	}
	return b.String()
}

func WelcomeText() string {
	return fmt.Sprintf("👋 歡迎來到%s！\n請選擇：\n%s\n%s\n%s\n%s", StudioName, CmdCourses, CmdSchedule, CmdQuickBook, CmdMyBookings)
}

func (s *Service) myBookingsText(ctx context.Context, userID string) string {
	bookings, err := s.UserBookings(ctx, userID)
	if err != nil {
		log.Printf("Booking: failed to load bookings for %s: %v", userID, err)
		return "❌ 無法讀取預約"
	}
	if len(bookings) == 0 {
		return "您目前沒有預約。\n輸入「立即預約」開始預約課程！"
	}
	parts := make([]string, 0, len(bookings))
	for _, b := range bookings {
		parts = append(parts, fmt.Sprintf("課程：%s\n日期：%s\n時間：%s\n預約時間：%s", b.CourseName, b.Date, b.Time, b.BookingTime))
	}
	return "📋 您的預約列表\n\n" + strings.Join(parts, "\n\n")
}

func (s *Service) bookText(ctx context.Context, userID, ref string) string {
	b, err := s.Book(ctx, userID, ref)
	switch {
	case errors.Is(err, ErrUnknownCourse):
		return fmt.Sprintf("課程不存在。請輸入「%s」查看可用課程。", CmdCourses)
	case errors.Is(err, ErrCourseFull):
		return "😢 此課程已額滿，請選擇其他課程。"
	case err != nil:
		log.Printf("Booking: %v", err)
		return "❌ 預約失敗，請稍後再試"
	}
	return fmt.Sprintf("✅ 預約成功！\n\n課程：%s\n日期：%s\n時間：%s\n\n我們會在 24 小時內確認您的預約。", b.CourseName, b.Date, b.Time)
}
