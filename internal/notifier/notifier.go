package notifier

import (
	"fmt"
	"strings"

	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"go.uber.org/zap"
)

// Notifier tells the club organisers about sign-ups and carpool matches.
type Notifier interface {
	NotifySignUp(game models.Game, role models.Role, who auth.Identity, names []string) error
	NotifyMatch(game models.Game, driver, passenger models.CarpoolEntry) error
}

func formatSignUp(game models.Game, role models.Role, who auth.Identity, names []string) string {
	by := who.DisplayName
	if by == "" {
		by = "anonyme"
	}
	filled := fmt.Sprintf("%d", len(role.Volunteers))
	if !role.Capacity.IsUnlimited() {
		filled = fmt.Sprintf("%d/%d", len(role.Volunteers), role.Capacity)
	}
	return fmt.Sprintf("🙋 **Nouveau bénévole**\n**Match:** %s vs %s (%s %s)\n**Poste:** %s (%s)\n**Noms:** %s\n**Par:** %s",
		game.Team, game.Opponent, game.Date, game.Time,
		role.Name, filled,
		strings.Join(names, ", "),
		by,
	)
}

func formatMatch(game models.Game, driver, passenger models.CarpoolEntry) string {
	return fmt.Sprintf("🚗 **Covoiturage confirmé**\n**Match:** %s vs %s (%s %s)\n**Conducteur:** %s\n**Passager:** %s (%d place(s))",
		game.Team, game.Opponent, game.Date, game.Time,
		driver.Name,
		passenger.Name, passenger.SeatCount(),
	)
}

// LogNotifier writes notifications to the log. It is used when no Discord
// bot is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notifier")}
}

func (n *LogNotifier) NotifySignUp(game models.Game, role models.Role, who auth.Identity, names []string) error {
	n.logger.Info("volunteer sign-up",
		zap.String("game", game.ID),
		zap.String("role", role.Name),
		zap.Strings("names", names),
		zap.String("by", who.DisplayName))
	return nil
}

func (n *LogNotifier) NotifyMatch(game models.Game, driver, passenger models.CarpoolEntry) error {
	n.logger.Info("carpool match",
		zap.String("game", game.ID),
		zap.String("driver", driver.Name),
		zap.String("passenger", passenger.Name))
	return nil
}
