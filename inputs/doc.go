// Package inputs checks the DEM and pour-point layer before any toolbox
// call is made.
package inputs
