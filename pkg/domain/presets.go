package domain

// 組み込みプリセットのプロンプトは pkg/prompts で text/template として展開されます。
// {{.Columns}} {{.Rows}} {{.FrameCount}} がグリッド形状に置き換わるのだ。
const sheetPreamble = "Fill this {{.Columns}}x{{.Rows}} sprite sheet grid ({{.FrameCount}} cells, read left-to-right, top-to-bottom) " +
	"with a cute pixel art version of the character from the reference image. " +
	"32x32 pixel art style, retro game aesthetic, clean chunky pixels. "

const sheetBackground = "Solid flat color background (same in all cells)."

var builtinPresets = []Preset{
	{
		Name:    "idle",
		Columns: 4,
		Rows:    4,
		Labels: []string{
			"1:stand", "2:breathe↑", "3:breathe↑↑", "4:breathe↑",
			"5:stand", "6:blink¼", "7:blink½", "8:blink¾",
			"9:eyes shut", "10:blink¾", "11:blink½", "12:blink¼",
			"13:stand", "14:breathe↓", "15:breathe↓↓", "16:breathe↓",
		},
		Prompt: sheetPreamble +
			"This is an IDLE animation loop with smooth transitions. Each cell is one frame: " +
			"Row 1: standing → gentle breathe up (body rises 1px each frame) → back to center. " +
			"Row 2: standing → slow eye blink (eyes gradually close over 4 frames). " +
			"Row 3: eyes fully shut → slow eye open (eyes gradually open over 4 frames). " +
			"Row 4: standing → gentle breathe down (body lowers 1px each frame) → back to center. " +
			"CRITICAL: Keep the character IDENTICAL across all {{.FrameCount}} frames — same colors, proportions, " +
			"size, position. Only the specified micro-movement should change. " +
			sheetBackground,
	},
	{
		Name:    "wave",
		Columns: 4,
		Rows:    4,
		Labels: []string{
			"1:stand", "2:arm↑¼", "3:arm↑½", "4:arm↑¾",
			"5:arm up", "6:wave R", "7:wave L", "8:wave R",
			"9:wave L", "10:wave R", "11:arm↓¾", "12:arm↓½",
			"13:arm↓¼", "14:stand", "15:smile", "16:stand",
		},
		Prompt: sheetPreamble +
			"This is a WAVE animation loop with smooth transitions. Each cell is one frame: " +
			"Row 1: standing still → arm gradually raising up (4 incremental positions). " +
			"Row 2: arm fully up → waving side to side (arm tilts right, left, right). " +
			"Row 3: still waving (left, right) → arm gradually lowering (2 frames). " +
			"Row 4: arm coming down → back to standing → happy smile → standing. " +
			"CRITICAL: Keep the character IDENTICAL across all {{.FrameCount}} frames — same colors, proportions, " +
			"size, position. Only the arm position and expression should change. " +
			sheetBackground,
	},
	{
		Name:    "bounce",
		Columns: 4,
		Rows:    4,
		Labels: []string{
			"1:stand", "2:crouch¼", "3:crouch½", "4:crouch full",
			"5:launch", "6:rise", "7:peak", "8:peak+happy",
			"9:fall start", "10:falling", "11:land", "12:squish",
			"13:recover¼", "14:recover½", "15:recover¾", "16:stand",
		},
		Prompt: sheetPreamble +
			"This is a BOUNCE animation loop with smooth transitions. Each cell is one frame: " +
			"Row 1: standing → gradually crouching down (getting squished/compressed). " +
			"Row 2: launching upward → rising → at peak of jump (stretched tall) → happy face at peak. " +
			"Row 3: starting to fall → falling fast → landing impact → squished on landing. " +
			"Row 4: gradually recovering from squish back to standing position. " +
			"CRITICAL: Keep the character IDENTICAL across all {{.FrameCount}} frames — same colors, proportions. " +
			"Only the vertical position and squish/stretch should change. " +
			sheetBackground,
	},
	{
		Name:    "dance",
		Columns: 4,
		Rows:    4,
		Labels: []string{
			"1:center", "2:lean L", "3:arms L", "4:lean L+",
			"5:center", "6:lean R", "7:arms R", "8:lean R+",
			"9:center", "10:arms up", "11:spin¼", "12:spin½",
			"13:spin¾", "14:arms up", "15:jump", "16:land",
		},
		Prompt: sheetPreamble +
			"This is a fun DANCE animation loop with smooth transitions. Each cell is one frame: " +
			"Row 1: center pose → leaning left → arms out left → full left lean. " +
			"Row 2: back to center → leaning right → arms out right → full right lean. " +
			"Row 3: center → arms up high → spinning (4 rotation frames). " +
			"Row 4: finish spin → arms up → jump → land back in center. " +
			"CRITICAL: Keep the character IDENTICAL across all {{.FrameCount}} frames — same colors, proportions. " +
			"Only the pose/position should change. Make it look fun and energetic! " +
			sheetBackground,
	},
}
