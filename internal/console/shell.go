// Package console is the line-oriented admin shell driven by cmd/console.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"okhouse/internal/calendar"
	"okhouse/internal/dates"
	"okhouse/internal/domain"
	"okhouse/internal/models"
	"okhouse/internal/reservation"
	"okhouse/internal/service"
	"okhouse/internal/token"
)

// Session is the part of the session controller the shell drives.
type Session interface {
	VerifyAndLogin(ctx context.Context, phone string) (models.AdminIdentity, error)
	CurrentIdentity(ctx context.Context) (models.AdminIdentity, error)
	Logout(ctx context.Context)
	TokenStatus() token.Status
}

type Admin interface {
	MonthView(ctx context.Context, year int, month time.Month) (*service.MonthView, error)
	All(ctx context.Context, category reservation.Category) ([]models.Reservation, error)
	Range(ctx context.Context, from, to time.Time, category reservation.Category) ([]models.Reservation, error)
	ChangeStatus(ctx context.Context, r models.Reservation, requested models.Status) (*models.Reservation, error)
	SaveMonth(ctx context.Context, dir string, year int, month time.Month) (string, error)
}

type Booking interface {
	Plan(ctx context.Context, req service.BookingRequest) (dates.Range, error)
	Submit(ctx context.Context, req service.BookingRequest) (*models.Reservation, error)
	Cancel(ctx context.Context, creds models.GuestCredentials) error
	Mine(ctx context.Context, name, phone string) ([]models.Reservation, error)
	Calendar(ctx context.Context, year int, month time.Month) (*service.GuestCalendar, error)
}

var errQuit = errors.New("quit")

// Shell reads one command per line and prints results to out.
type Shell struct {
	session   Session
	admin     Admin
	booking   Booking
	exportDir string
	out       io.Writer
	now       func() time.Time

	mu     sync.Mutex
	loaded map[int64]models.Reservation
}

func NewShell(session Session, admin Admin, booking Booking, exportDir string, out io.Writer) *Shell {
	return &Shell{
		session:   session,
		admin:     admin,
		booking:   booking,
		exportDir: exportDir,
		out:       out,
		now:       time.Now,
		loaded:    map[int64]models.Reservation{},
	}
}

// Run executes commands from in until EOF, "quit" or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := s.Exec(ctx, line); errors.Is(err, errQuit) {
				return nil
			}
			s.prompt()
		}
	}
}

// Exec runs a single command line. Command failures are printed, not
// returned; only quitting yields an error.
func (s *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	var err error
	switch cmd {
	case "help":
		s.help()
	case "quit", "exit":
		return errQuit
	case "login":
		err = s.login(ctx, args)
	case "whoami":
		err = s.whoami(ctx)
	case "token":
		s.tokenStatus()
	case "logout":
		s.session.Logout(ctx)
		s.println("로그아웃되었습니다.")
	case "month":
		err = s.month(ctx, args)
	case "confirm":
		err = s.changeStatus(ctx, args, models.StatusConfirmed)
	case "pending":
		err = s.changeStatus(ctx, args, models.StatusPending)
	case "reject":
		err = s.changeStatus(ctx, args, models.StatusCancelled)
	case "export":
		err = s.export(ctx, args)
	case "all":
		err = s.all(ctx, args)
	case "range":
		err = s.dateRange(ctx, args)
	case "show":
		err = s.show(args)
	case "calendar":
		err = s.guestCalendar(ctx, args)
	case "plan", "book":
		err = s.book(ctx, args, cmd == "book")
	case "move":
		err = s.move(ctx, args)
	case "mine":
		err = s.mine(ctx, args)
	case "cancel":
		err = s.cancel(ctx, args)
	default:
		s.printf("알 수 없는 명령입니다: %s (help 참고)\n", cmd)
	}
	if err != nil {
		s.println(domain.Message(err))
	}
	return nil
}

func (s *Shell) help() {
	s.println(strings.Join([]string{
		"login <전화번호>",
		"whoami | token | logout",
		"month <YYYY-MM> [전체|확정|대기|거절|이용종료|내 결정]",
		"all [분류]",
		"range <시작일> <종료일> [분류]  (YYYY-MM-DD 또는 YYYY-MM)",
		"show <예약번호>",
		"confirm|pending|reject <예약번호>",
		"export <YYYY-MM>",
		"calendar <YYYY-MM>",
		"plan|book <YYYY-MM-DD> <박수> <이름> <전화번호> <비밀번호>",
		"move <예약번호> <YYYY-MM-DD> <박수> <이름> <전화번호> <비밀번호>",
		"mine <이름> <전화번호>",
		"cancel <예약번호> <이름> <전화번호> <비밀번호>",
		"quit",
	}, "\n"))
}

func (s *Shell) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return domain.NewError(domain.ErrValidation, "사용법: login <전화번호>", nil)
	}
	identity, err := s.session.VerifyAndLogin(ctx, reservation.NormalizePhone(args[0]))
	if err != nil {
		return err
	}
	s.printf("%s님, 환영합니다.\n", identity.Name)
	return nil
}

func (s *Shell) whoami(ctx context.Context) error {
	identity, err := s.session.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	s.printf("%s (#%d)\n", identity.Name, identity.ID)
	return nil
}

func (s *Shell) tokenStatus() {
	st := s.session.TokenStatus()
	switch {
	case !st.IsValid:
		s.println("유효한 토큰이 없습니다.")
	case st.IsExpiringSoon:
		s.printf("토큰이 곧 만료됩니다 (%d초 남음).\n", st.SecondsRemaining)
	default:
		s.printf("토큰 유효 (%d초 남음).\n", st.SecondsRemaining)
	}
}

func (s *Shell) month(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return domain.NewError(domain.ErrValidation, "사용법: month <YYYY-MM> [분류]", nil)
	}
	year, month, err := parseMonth(args[0])
	if err != nil {
		return err
	}
	category := categoryOf(args[1:])

	view, err := s.admin.MonthView(ctx, year, month)
	if err != nil {
		return err
	}

	s.remember(view.Reservations)

	s.printf("%04d년 %02d월\n", year, int(month))
	s.printGrid(view.Cells, plainCell)

	list := view.Reservations
	if category != reservation.CategoryAll {
		list = view.Groups[category]
	}
	s.printList(list)
	return nil
}

func (s *Shell) all(ctx context.Context, args []string) error {
	list, err := s.admin.All(ctx, categoryOf(args))
	if err != nil {
		return err
	}
	s.remember(list)
	s.printList(list)
	return nil
}

func (s *Shell) dateRange(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return domain.NewError(domain.ErrValidation, "사용법: range <시작일> <종료일> [분류]", nil)
	}
	from, err := parseDay(args[0], false)
	if err != nil {
		return err
	}
	to, err := parseDay(args[1], true)
	if err != nil {
		return err
	}
	list, err := s.admin.Range(ctx, from, to, categoryOf(args[2:]))
	if err != nil {
		return err
	}
	s.remember(list)
	s.printList(list)
	return nil
}

// show draws the month a loaded reservation starts in, its nights in
// parentheses.
func (s *Shell) show(args []string) error {
	r, err := s.lookup(args)
	if err != nil {
		return err
	}
	s.printf("#%d %s %s [%s]\n", r.ID, r.Name, reservation.FormatPeriod(r), r.Status.Text())
	s.printGrid(calendar.BuildForReservation(r, s.now()), func(c models.CalendarCell) string {
		if c.Reserved() {
			return fmt.Sprintf("(%2d)", c.Day)
		}
		return plainCell(c)
	})
	return nil
}

func (s *Shell) guestCalendar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return domain.NewError(domain.ErrValidation, "사용법: calendar <YYYY-MM>", nil)
	}
	year, month, err := parseMonth(args[0])
	if err != nil {
		return err
	}
	cal, err := s.booking.Calendar(ctx, year, month)
	if err != nil {
		return err
	}
	s.printf("%04d년 %02d월 (-- 는 예약 불가)\n", year, int(month))
	s.printGrid(cal.Cells, func(c models.CalendarCell) string {
		if !cal.Open[c.Day] {
			return " -- "
		}
		return fmt.Sprintf(" %2d ", c.Day)
	})
	return nil
}

func (s *Shell) changeStatus(ctx context.Context, args []string, requested models.Status) error {
	r, err := s.lookup(args)
	if err != nil {
		return err
	}

	updated, err := s.admin.ChangeStatus(ctx, r, requested)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.loaded[r.ID] = *updated
	s.mu.Unlock()
	s.printf("#%d %s\n", r.ID, updated.Status.Text())
	return nil
}

func (s *Shell) export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return domain.NewError(domain.ErrValidation, "사용법: export <YYYY-MM>", nil)
	}
	year, month, err := parseMonth(args[0])
	if err != nil {
		return err
	}
	path, err := s.admin.SaveMonth(ctx, s.exportDir, year, month)
	if err != nil {
		return err
	}
	s.printf("저장했습니다: %s\n", path)
	return nil
}

func (s *Shell) book(ctx context.Context, args []string, submit bool) error {
	if len(args) != 5 {
		return domain.NewError(domain.ErrValidation, "사용법: plan|book <YYYY-MM-DD> <박수> <이름> <전화번호> <비밀번호>", nil)
	}
	req, err := bookingRequest(args)
	if err != nil {
		return err
	}

	if !submit {
		stay, err := s.booking.Plan(ctx, req)
		if err != nil {
			return err
		}
		s.printf("예약 가능: %s ~ %s (%d박)\n", dates.FormatLocalized(stay.Start), dates.FormatLocalized(stay.End), stay.Duration)
		return nil
	}

	created, err := s.booking.Submit(ctx, req)
	if err != nil {
		return err
	}
	s.printf("예약되었습니다: #%d %s\n", created.ID, reservation.FormatPeriod(*created))
	return nil
}

func (s *Shell) move(ctx context.Context, args []string) error {
	if len(args) != 6 {
		return domain.NewError(domain.ErrValidation, "사용법: move <예약번호> <YYYY-MM-DD> <박수> <이름> <전화번호> <비밀번호>", nil)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	req, err := bookingRequest(args[1:])
	if err != nil {
		return err
	}
	req.ReservationID = id

	moved, err := s.booking.Submit(ctx, req)
	if err != nil {
		return err
	}
	s.printf("예약이 변경되었습니다: #%d %s\n", moved.ID, reservation.FormatPeriod(*moved))
	return nil
}

func (s *Shell) mine(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return domain.NewError(domain.ErrValidation, "사용법: mine <이름> <전화번호>", nil)
	}
	list, err := s.booking.Mine(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	s.remember(list)
	s.printList(list)
	return nil
}

func (s *Shell) cancel(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return domain.NewError(domain.ErrValidation, "사용법: cancel <예약번호> <이름> <전화번호> <비밀번호>", nil)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	creds := models.GuestCredentials{ReservationID: id, Name: args[1], Phone: args[2], Password: args[3]}
	if err := s.booking.Cancel(ctx, creds); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.loaded, id)
	s.mu.Unlock()
	s.printf("예약이 취소되었습니다: #%d\n", id)
	return nil
}

// remember replaces the reservations later commands can refer to by number.
func (s *Shell) remember(list []models.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = make(map[int64]models.Reservation, len(list))
	for _, r := range list {
		s.loaded[r.ID] = r
	}
}

func (s *Shell) lookup(args []string) (models.Reservation, error) {
	if len(args) != 1 {
		return models.Reservation{}, domain.NewError(domain.ErrValidation, "예약번호를 입력해주세요.", nil)
	}
	id, err := parseID(args[0])
	if err != nil {
		return models.Reservation{}, err
	}

	s.mu.Lock()
	r, ok := s.loaded[id]
	s.mu.Unlock()
	if !ok {
		return models.Reservation{}, domain.NewError(domain.ErrValidation, "먼저 month, all, range 또는 mine 명령으로 예약을 불러와주세요.", nil)
	}
	return r, nil
}

func (s *Shell) printList(list []models.Reservation) {
	if len(list) == 0 {
		s.println("예약이 없습니다.")
		return
	}
	for _, r := range list {
		s.printf("#%d %s %s %s [%s]\n", r.ID, r.Name, reservation.FormatPhone(r.Phone), reservation.FormatPeriod(r), r.Status.Text())
	}
}

// printGrid prints the in-month cells of a grid one week per line.
func (s *Shell) printGrid(cells []models.CalendarCell, render func(models.CalendarCell) string) {
	s.println(" 일  월  화  수  목  금  토")
	for _, week := range calendar.Weeks(cells) {
		var b strings.Builder
		for _, c := range week {
			if !c.InMonth() {
				b.WriteString("    ")
				continue
			}
			b.WriteString(render(c))
		}
		s.println(strings.TrimRight(b.String(), " "))
	}
}

func plainCell(c models.CalendarCell) string {
	if c.IsToday {
		return fmt.Sprintf("[%2d]", c.Day)
	}
	return fmt.Sprintf(" %2d ", c.Day)
}

func bookingRequest(args []string) (service.BookingRequest, error) {
	start, err := dates.ParseTransport(args[0])
	if err != nil {
		return service.BookingRequest{}, domain.ErrInvalidDate
	}
	nights, err := strconv.Atoi(args[1])
	if err != nil {
		return service.BookingRequest{}, domain.ErrDurationOutOfRange
	}
	return service.BookingRequest{Name: args[2], Phone: args[3], Password: args[4], Start: start, Nights: nights}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.NewError(domain.ErrValidation, "예약번호는 숫자여야 합니다.", nil)
	}
	return id, nil
}

func categoryOf(args []string) reservation.Category {
	if len(args) == 0 {
		return reservation.CategoryAll
	}
	return reservation.Category(strings.Join(args, " "))
}

// parseDay accepts YYYY-MM-DD or YYYY-MM. A bare month means its first
// day, or its last day when end is set.
func parseDay(s string, end bool) (time.Time, error) {
	if day, err := dates.ParseTransport(s); err == nil {
		return day, nil
	}
	year, month, err := parseMonth(s)
	if err != nil {
		return time.Time{}, domain.NewError(domain.ErrInvalidDate, "날짜는 YYYY-MM-DD 또는 YYYY-MM 형식으로 입력해주세요.", nil)
	}
	d := 1
	if end {
		d = dates.DaysIn(year, month)
	}
	return time.Date(year, month, d, 0, 0, 0, 0, time.Local), nil
}

func parseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, domain.NewError(domain.ErrInvalidDate, "월은 YYYY-MM 형식으로 입력해주세요.", nil)
	}
	return t.Year(), t.Month(), nil
}

func (s *Shell) prompt() {
	_, _ = io.WriteString(s.out, "> ")
}

func (s *Shell) println(msg string) {
	_, _ = fmt.Fprintln(s.out, msg)
}

func (s *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
