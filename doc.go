// Package leveling simulates tilt compensation for adjustable platforms.
//
// Given a platform geometry and an orientation measured by a streaming IMU,
// it computes the linear-actuator lengths needed to realize (or cancel) that
// orientation for three mechanisms: a 3-leg tripod mount, a 3-DOF Stewart
// platform and a 6-DOF Stewart platform.
//
// # Installation
//
//	go install github.com/thebibbi/leveling/cmd/leveling@latest
//
// # Usage
//
// Open the guided menu:
//
//	leveling menu
//
// Or jump straight to the live visualizer or the leveling shell:
//
//	leveling visualize --platform stewart_6dof
//	leveling run --platform tripod
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/leveling: CLI with menu, visualize, run and compare commands
//   - cmd/imu-inspect: diagnostic dump of incoming Sensor Logger payloads
//   - pkg/kinematics: inverse-kinematics solvers for all platform variants
//   - pkg/imu: UDP and HTTP orientation streamers (phone IMU apps)
//   - pkg/actuator: simulated ESP32 actuator controller and wire protocol
//   - pkg/leveling: the leveling loop tying IMU, solver and actuators together
package leveling
