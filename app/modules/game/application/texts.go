package gameservice

import (
	"fmt"
	"strings"
)

// User-facing texts. The bot speaks Russian, matching the platform audience.
const (
	textBadCommand       = "Некорректная команда."
	textGameInProgress   = "Некорректная команда. Игра уже идёт"
	textNoQuestions      = "В базе данных нет вопросов! Запуск игры невозможен. Срочно попросите администратора добавить вопросы!"
	textNoBlitzQuestions = "В базе данных нет вопросов для блица! Запуск игры невозможен. Срочно попросите администратора добавить вопросы!"
	textOutOfQuestions   = "В базе данных закончились вопросы! Срочно попросите администратора внести новые вопросы!"
	textTooLate          = "К сожалению, время истекло. Вы не успели ответить."
	textSpinTop          = "Капитан, крутите волчок, чтобы выбрать вопрос"
	textTopSpinning      = "Волчок выбирает вопрос..."
	textNextRound        = "Следующий раунд!"
	textTimeStarted      = "Время пошло!"
	textPlayAgain        = "Хотите ли сыграть ещё?"
	textAgainAck         = "Играем ещё раз"
	textRegistrationOpen = "Идёт регистрация участников игры"
	textHelp             = "Используются следующие команды: /hello - запуск регистрации в игре; " +
		"/scores - очки по игрокам; /finish - завершить игру; /help - вывод этой справки."

	textChooseSpeaker = "Капитан, выберите отвечающего на вопрос"
	textBlitzIntro    = "Выпал сектор Блиц! Вас ждут три вопроса подряд, время на обсуждение и ответ сокращено."
	textBlitzWon      = "Блиц взят! Поздравляем, знатоки!"
	textNotCaptain    = "Эта кнопка только для капитана"
	textNotSpeaker    = "Отвечает другой игрок. Дождитесь своей очереди."
	textGameAborted   = "Игра завершена досрочно."

	labelRegister = "Присоединиться к игре"
	labelStart    = "Начать игру"
	labelTop      = "Крутить волчок"
	labelAgain    = "Играть ещё"
	labelCaptain  = "Капитан"
)

// literalSeconds renders a duration in seconds as Russian words with proper
// pluralization, e.g. 90 -> "1 минута 30 секунд".
func literalSeconds(t int) string {
	if t <= 0 {
		return "0 секунд"
	}
	minutes := t / 60
	seconds := t - minutes*60
	var parts []string
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", minutes, pluralRu(minutes, "минута", "минуты", "минут")))
	}
	if seconds > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", seconds, pluralRu(seconds, "секунда", "секунды", "секунд")))
	}
	return strings.Join(parts, " ")
}

// pluralRu picks the Russian plural form for n.
func pluralRu(n int, one, few, many string) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}
