package core

import "stepgen/pkg/domain"

// DropTipArgs names the pipette whose tip should be discarded.
type DropTipArgs struct {
	Pipette string `json:"pipette"`
}

// DropTip discards the pipette's tip into the fixed trash. Asking to drop a
// tip from an empty pipette succeeds with no commands.
func DropTip(args DropTipArgs, _ domain.InvariantContext, prev domain.RobotState) domain.CommandCreatorResult {
	if !prev.HasTip(args.Pipette) {
		return domain.CommandsResult(nil)
	}
	return domain.CommandsResult([]domain.Command{
		domain.DropTipCommand{Params: domain.PipetteAccessParams{
			Pipette: args.Pipette,
			Labware: domain.FixedTrashID,
			Well:    "A1",
		}},
	})
}
