// Package quiz реализует конечный автомат прохождения теста:
// Loading -> InProgress -> AnswerRevealed -> ... -> Finished.
// Автомат чистый: сетевые вызовы (загрузка вопросов, отправка результата)
// выполняет application слой, автомат лишь выдаёт результат ровно один раз.
package quiz

import (
	"math"

	"github.com/google/uuid"

	"github.com/USamirjon/miniapp/internal/domain/course"
	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATES
// ══════════════════════════════════════════════════════════════════════════════

// State представляет состояние автомата.
type State int

const (
	// StateLoading - вопросы ещё не загружены.
	StateLoading State = iota

	// StateInProgress - показан текущий вопрос, ответ не выбран.
	StateInProgress

	// StateAnswerRevealed - ответ выбран, показано пояснение.
	StateAnswerRevealed

	// StateFinished - все вопросы пройдены, вычислен вердикт.
	StateFinished
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateAnswerRevealed:
		return "answer_revealed"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULT
// ══════════════════════════════════════════════════════════════════════════════

// Result представляет итог прохождения теста.
type Result struct {
	// RunID - идентификатор этого прохождения (ключ submit-once защёлки).
	RunID string

	// TestID - идентификатор теста.
	TestID string

	// BlockID - блок, которому принадлежит тест.
	BlockID string

	// Score - число правильных ответов.
	Score int

	// Total - общее число вопросов.
	Total int

	// Passed - строгое большинство: score > total/2.
	// Ровно половина при чётном total не проходит.
	Passed bool

	// Percent - округлённый до ближайшего целого процент правильных.
	Percent int
}

// Passed вычисляет вердикт по правилу строгого большинства.
func Passed(score, total int) bool {
	return score*2 > total
}

// PercentCorrect вычисляет округлённый процент правильных ответов.
// 3/4 -> 75; 1/3 -> 33.
func PercentCorrect(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// ══════════════════════════════════════════════════════════════════════════════
// RUNNER
// ══════════════════════════════════════════════════════════════════════════════

// Runner ведёт пользователя по упорядоченному списку вопросов теста.
// Навигация прочь в любом состоянии просто отбрасывает Runner;
// частичный результат никогда не отправляется.
type Runner struct {
	test      course.Test
	state     State
	index     int
	score     int
	selected  *course.Answer
	runID     string
	submitted bool
}

// NewRunner создаёт автомат в состоянии Loading для teста testID.
func NewRunner(test course.Test) *Runner {
	return &Runner{
		test:  test,
		state: StateLoading,
		runID: uuid.NewString(),
	}
}

// Start переводит автомат Loading -> InProgress после загрузки вопросов.
// Список вопросов мог приехать вместе с тестом из предыдущей навигации -
// это равнозначные данные, а не другая модель.
func (r *Runner) Start(questions []course.Question) error {
	if r.state != StateLoading {
		return shared.ErrQuizNotLoading
	}
	if len(questions) == 0 {
		return shared.ErrQuizEmptyQuestions
	}
	r.test.Questions = questions
	r.state = StateInProgress
	r.index = 0
	r.score = 0
	r.selected = nil
	return nil
}

// State возвращает текущее состояние.
func (r *Runner) State() State { return r.state }

// RunID возвращает идентификатор текущего прохождения.
func (r *Runner) RunID() string { return r.runID }

// Score возвращает текущее число правильных ответов.
func (r *Runner) Score() int { return r.score }

// Total возвращает общее число вопросов.
func (r *Runner) Total() int { return len(r.test.Questions) }

// QuestionIndex возвращает индекс текущего вопроса.
func (r *Runner) QuestionIndex() int { return r.index }

// CurrentQuestion возвращает текущий вопрос.
func (r *Runner) CurrentQuestion() (course.Question, bool) {
	if r.state != StateInProgress && r.state != StateAnswerRevealed {
		return course.Question{}, false
	}
	return r.test.Questions[r.index], true
}

// Selected возвращает выбранный ответ текущего вопроса (для отображения
// "правильный против выбранного").
func (r *Runner) Selected() (course.Answer, bool) {
	if r.state != StateAnswerRevealed || r.selected == nil {
		return course.Answer{}, false
	}
	return *r.selected, true
}

// SelectAnswer обрабатывает выбор ответа: InProgress -> AnswerRevealed.
// Правильный ответ увеличивает счёт ровно на 1.
func (r *Runner) SelectAnswer(answerID string) error {
	if r.state != StateInProgress {
		return shared.ErrQuizNotInProgress
	}

	q := r.test.Questions[r.index]
	for i := range q.Answers {
		if q.Answers[i].ID == answerID {
			r.selected = &q.Answers[i]
			if q.Answers[i].IsCorrect {
				r.score++
			}
			r.state = StateAnswerRevealed
			return nil
		}
	}
	return shared.ErrQuizAnswerNotInSet
}

// Next обрабатывает явное действие "дальше":
// AnswerRevealed -> InProgress(index+1) либо -> Finished.
func (r *Runner) Next() error {
	if r.state != StateAnswerRevealed {
		return shared.ErrQuizNotRevealed
	}

	r.selected = nil
	if r.index+1 >= len(r.test.Questions) {
		r.state = StateFinished
		return nil
	}
	r.index++
	r.state = StateInProgress
	return nil
}

// Result возвращает итог завершённого прохождения.
// Повторные вызовы безопасны: чтение результата не является отправкой.
func (r *Runner) Result() (Result, error) {
	if r.state != StateFinished {
		return Result{}, shared.ErrQuizNotFinished
	}
	total := len(r.test.Questions)
	return Result{
		RunID:   r.runID,
		TestID:  r.test.ID,
		BlockID: r.test.BlockID,
		Score:   r.score,
		Total:   total,
		Passed:  Passed(r.score, total),
		Percent: PercentCorrect(r.score, total),
	}, nil
}

// TakeSubmission выдаёт результат для отправки ровно один раз за прохождение.
// Повторные рендеры состояния Finished получают ok == false и ничего
// не переотправляют.
func (r *Runner) TakeSubmission() (Result, bool) {
	if r.state != StateFinished || r.submitted {
		return Result{}, false
	}
	r.submitted = true
	res, _ := r.Result()
	return res, true
}

// Restart сбрасывает автомат в InProgress(0, 0) со свежей защёлкой.
// Разрешён только когда тест не пройден.
func (r *Runner) Restart() error {
	if r.state != StateFinished {
		return shared.ErrQuizNotFinished
	}
	if Passed(r.score, len(r.test.Questions)) {
		return shared.ErrQuizAlreadyPassed
	}
	r.state = StateInProgress
	r.index = 0
	r.score = 0
	r.selected = nil
	r.submitted = false
	r.runID = uuid.NewString()
	return nil
}
