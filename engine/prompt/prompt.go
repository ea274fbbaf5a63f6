package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
)

// BuildRoomPrompt builds the room decomposition instruction for a free-form
// room description.
func BuildRoomPrompt(description string) string {
	return fmt.Sprintf(`## Role
Your task is to analyze a room description to identify the room type and all mentioned objects with their basic descriptions.

## Rules
(1) Extract the room type from the description (e.g., BedRoom, LivingRoom, Kitchen, etc.).
(2) Identify all mentioned objects and their basic descriptions exactly as described.
(3) If the description mentions multiple instances of the same object, maintain the exact count.
(4) Don't omit the information about the objects in the description.
(5) When encountering quantity words (e.g., six, two, three, multiple) describing objects, split them into individual objects equal to the quantity. Use the singular form of the object name, and apply the same description to each.
(6) Ensure quantity words are not included in the object name. Focus on the core object name in singular form (e.g., use "Chair" instead of "six chairs" or "Chairs").

## Room Description
%s

## Response Format
Report the result of the room_type and dictionaries for each object in JSON format, as follows:
{"room_type": "LivingRoom", "objects": [{"name": "Sofa", "description": "A dark green upholstered sofa with brass nailhead trim."}, {"name": "Armchair", "description": "An armchair with a cushioned seat and thin metal legs."}, {"name": "Coffee Table", "description": "A modern coffee table with a round wooden top."}]}

Important Notes about response format:
- Output nothing but the JSON. No preamble, no explanation, no additional text of any kind
`, description)
}

// BuildLayoutPrompt builds the spatial layout instruction from the object
// manifest. Labels iterate in the given order so the prompt is deterministic
// for a given room spec.
func BuildLayoutPrompt(roomType string, labels []string, objects map[string][]domain.ObjectPrompt) string {
	var manifest strings.Builder
	manifest.WriteString("{")
	for i, label := range labels {
		if i > 0 {
			manifest.WriteString(", ")
		}
		entries, _ := json.Marshal(objects[label])
		fmt.Fprintf(&manifest, "%q: %s", label, entries)
	}
	manifest.WriteString("}")

	return fmt.Sprintf(`## Role
Your task is to arrange some objects within a given %s effectively. Follow these guidance to complete your design:

## Rules
(1) Extract the [Objects] and [Bounding Box Size] from the object information.
(2) Analyze the spatial relationships among [Objects] within the specified [Room Type]. Pay special attention to **avoiding overlap** and **consider other spatial factors like accessibility and aesthetics**.
(3) Determine and design the precise location of all [Objects] ensuring that their bounding boxes do not overlap and that the layout is functional and visually appealing.
(4) I prefer objects to be placed at the edge (the most important constraint) of the room if possible which makes the room look more spacious.
(5) Objects usually need to be aligned in some way (such as parallel or perpendicular to the walls) and **must not extend beyond the floor area**.
(6) Chairs must be placed near to the table/desk and face to the table/desk.
(7) Before specifying the detailed positions of each object, first think about their general arrangement and relative spatial relationships:
    a) Which objects need the most space or have fixed positions (like beds, wardrobes)
    b) Which objects need to be grouped together (like nightstands with bed)
    c) Traffic flow and accessibility considerations.

## Object Information
%s
*Note: bbox format is [length, width, height] in meters*

## Response Format
First design the vertices of the floor, then report the 3D spatial coordinates and rotation angles of each object in JSON format, as follows:
{"Floor": {"xyz": [[8.0, 0, 6.76], [8.0, 0, 0.0], [0.0, 0, 6.76], [0.0, 0, 0.0]]}, "Coffee Tables": [{"position": [1.62, 0.0, 2.29], "rotation": [180, 90, 180]}], "Benches": [{"position": [1.72, 0.0, 3.66], "rotation": [0, 0, 0]}, {"position": [1.63, 0.0, 0.9], "rotation": [0, 0, 0]}]}

Important Notes about Coordinate System:
- Y-axis points upward (y=0 is floor level)
- X-axis runs along the room's length from west to east
- Z-axis runs along the room's width from south to north
- All coordinates are in meters
- Output nothing but the JSON (No preamble, no explanation, no additional text of any kind)
`, roomType, manifest.String())
}
