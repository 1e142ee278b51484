package services

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CaptchaService produces small arithmetic challenges for the register form.
type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateMathProblem returns a question such as "3 + 5" and its answer.
// The answer belongs in the session, the question on the page.
func (s *CaptchaService) GenerateMathProblem() (string, int) {
	s.mu.Lock()
	a := s.rnd.Intn(10)
	b := s.rnd.Intn(10)
	op := s.rnd.Intn(2)
	s.mu.Unlock()

	if op == 0 {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	// keep results non-negative
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}

// Verify compares a submitted answer with the stored one.
func (s *CaptchaService) Verify(submitted string, expected int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(submitted))
	return err == nil && n == expected
}
