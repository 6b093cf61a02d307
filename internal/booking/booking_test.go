package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *Service {
	s := NewService(storage.NewMemoryStore(), time.UTC)
	s.now = func() time.Time { return time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestFindCourse(t *testing.T) {
	c, ok := FindCourse("2")
	require.True(t, ok)
	assert.Equal(t, "寧靜冥想", c.Name)

	c, ok = FindCourse(" 親子瑜伽 ")
	require.True(t, ok)
	assert.Equal(t, 10, c.Capacity)

	_, ok = FindCourse("7")
	assert.False(t, ok)
}

func TestBook(t *testing.T) {
	ctx := context.Background()
	s := newService()

	b, err := s.Book(ctx, "U1", "朝陽瑜伽")
	require.NoError(t, err)
	assert.Equal(t, "1", b.CourseID)
	assert.Equal(t, "2026-05-04", b.Date)
	assert.Equal(t, "07:00", b.Time)
	assert.Equal(t, "pending", b.Status)

	_, err = s.Book(ctx, "U1", "不存在")
	assert.ErrorIs(t, err, ErrUnknownCourse)

	mine, err := s.UserBookings(ctx, "U1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestBook_CourseFull(t *testing.T) {
	ctx := context.Background()
	s := newService()

	var wg sync.WaitGroup
	errs := make(chan error, 15)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Book(ctx, "U", "6")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	full := 0
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrCourseFull)
			full++
		}
	}
	assert.Equal(t, 5, full)

	left, err := s.Remaining(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, left["6"])
	assert.Equal(t, 15, left["1"])
}

func TestHandle(t *testing.T) {
	ctx := context.Background()
	s := newService()

	assert.Contains(t, s.Handle(ctx, "U1", "查看課程"), "1. 朝陽瑜伽")
	assert.Contains(t, s.Handle(ctx, "U1", "schedule"), "周三 18:00 - 力量瑜伽\n教練：林教練")
	assert.Equal(t, "您目前沒有預約。\n輸入「立即預約」開始預約課程！", s.Handle(ctx, "U1", "我的預約"))
	assert.Contains(t, s.Handle(ctx, "U1", "立即預約"), "預約 寧靜冥想")

	assert.Contains(t, s.Handle(ctx, "U1", "預約 力量瑜伽"), "✅ 預約成功！")
	assert.Contains(t, s.Handle(ctx, "U1", "book 4"), "課程：柔和伸展")
	assert.Contains(t, s.Handle(ctx, "U1", "my bookings"), "📋 您的預約列表")
	assert.Equal(t, "課程不存在。請輸入「查看課程」查看可用課程。", s.Handle(ctx, "U1", "預約 拳擊"))
	assert.Contains(t, s.Handle(ctx, "U1", "hello"), "👋 歡迎來到九容瑜伽！")
}
